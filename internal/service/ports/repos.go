package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirinyoku/stagepass/internal/domain"
)

// ConcertRepo is the storage contract for concerts. Lookups exclude
// soft-deleted rows and return repository.ErrNotFound when nothing matches.
type ConcertRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Concert, error)
	// FindByIDForUpdate locks the concert row for the duration of the
	// surrounding transaction. Reservations use it so the capacity check
	// and the seat increment are atomic relative to concurrent calls.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concert, error)
	FindAll(ctx context.Context) ([]domain.Concert, error)
	Create(ctx context.Context, c domain.Concert) (*domain.Concert, error)
	Update(ctx context.Context, c domain.Concert) (*domain.Concert, error)
}

// BookingRepo is the storage contract for bookings. At most one row exists
// per (concert, user) pair; Create surfaces repository.ErrConflict when the
// pair already exists.
type BookingRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	FindByConcertAndUser(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error)
	FindByConcertID(ctx context.Context, concertID uuid.UUID) ([]domain.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.BookingWithConcert, error)
	FindAll(ctx context.Context) ([]domain.BookingWithConcert, error)
	Create(ctx context.Context, b domain.Booking) (*domain.Booking, error)
	Update(ctx context.Context, b domain.Booking) (*domain.Booking, error)
	// CancelAllByConcertID transitions every RESERVED row for the concert
	// to CANCELED in a single statement, bypassing per-booking validation.
	// Returns the number of rows transitioned.
	CancelAllByConcertID(ctx context.Context, concertID uuid.UUID) (int64, error)
}

type UserRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (*domain.User, error)
}

// Repos is a view over all repositories sharing one storage handle. The
// pool-backed view serves plain reads; UnitOfWork.Do hands the body a
// tx-backed view.
type Repos interface {
	Concerts() ConcertRepo
	Bookings() BookingRepo
	Users() UserRepo
}
