package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository"
	redisrepo "github.com/kirinyoku/stagepass/internal/repository/redis"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

// Service implements the seat reservation and cancellation use cases. Every
// mutation runs inside a unit of work; cache invalidation and change
// notifications are after-commit hooks, so they fire exactly when the
// transaction commits and always before the call returns.
type Service struct {
	uow     ports.UnitOfWork
	cache   ports.Cache
	events  ports.Events
	limiter ports.Limiter
}

func New(
	uow ports.UnitOfWork,
	cache ports.Cache,
	events ports.Events,
	limiter ports.Limiter,
) *Service {
	return &Service{
		uow:     uow,
		cache:   cache,
		events:  events,
		limiter: limiter,
	}
}

// ReserveSeat reserves one seat on a concert for a user.
//
// The check order is contractual: an existing RESERVED booking rejects the
// call before the concert or its capacity is even looked at, so a user who
// already holds a seat gets the already-reserved conflict even when the
// concert is full. The concert row is locked for the transaction, making
// the capacity check and the seat increment atomic relative to concurrent
// reservations: of two racing calls for the last seat, exactly one commits
// and the other observes the committed count and fails.
//
// A CANCELED booking for the pair is reactivated in place: same ID, same
// CreatedAt, status back to RESERVED.
//
// Returns:
//   - *domain.Booking: the resulting RESERVED booking.
//   - error: booking.ErrAlreadyReserved, booking.ErrConcertNotFound,
//     booking.ErrConcertFull or booking.ErrRateLimited.
func (s *Service) ReserveSeat(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.ReserveSeat"

	if s.limiter != nil {
		ok, retry, err := s.limiter.Allow(ctx, "reserve:user:"+userID.String())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w (retry in %s)", op, ErrRateLimited, retry)
		}
	}

	var result *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx ports.Repos,
		after func(ports.AfterCommit),
	) error {
		existing, err := tx.Bookings().FindByConcertAndUser(ctx, concertID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}

		if existing != nil && existing.Status == domain.BookingReserved {
			return fmt.Errorf("%s: %w", op, ErrAlreadyReserved)
		}

		concert, err := tx.Concerts().FindByIDForUpdate(ctx, concertID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrConcertNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if !concert.CanReserve() {
			return fmt.Errorf("%s: %w", op, ErrConcertFull)
		}

		reserved, err := concert.ReserveSeat()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if _, err := tx.Concerts().Update(ctx, reserved); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		var b *domain.Booking
		if existing != nil {
			reactivated := existing.Reactivate()
			b, err = tx.Bookings().Update(ctx, reactivated)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		} else {
			b, err = tx.Bookings().Create(ctx, domain.Booking{
				ConcertID: concertID,
				UserID:    userID,
				Status:    domain.BookingReserved,
			})
			if err != nil {
				// The unique (concert_id, user_id) index catches two
				// racing first reservations by the same user.
				if errors.Is(err, repository.ErrConflict) {
					return fmt.Errorf("%s: %w", op, ErrAlreadyReserved)
				}

				return fmt.Errorf("%s: %w", op, err)
			}
		}

		result = b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcert(concertID))
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcertsAll())
			_ = s.events.PublishConcertChanged(ctx, concertID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CancelBooking cancels the user's booking on a concert and releases the
// seat. Booking and concert are updated in the same transaction, keeping
// reserved-seat counts in step with booking state.
//
// Returns:
//   - *domain.Booking: the CANCELED booking.
//   - error: booking.ErrBookingNotFound, booking.ErrAlreadyCanceled or
//     booking.ErrConcertNotFound.
func (s *Service) CancelBooking(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error) {
	const op = "service.booking.CancelBooking"

	var result *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx ports.Repos,
		after func(ports.AfterCommit),
	) error {
		b, err := tx.Bookings().FindByConcertAndUser(ctx, concertID, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrBookingNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		if b.Status == domain.BookingCanceled {
			return fmt.Errorf("%s: %w", op, ErrAlreadyCanceled)
		}

		concert, err := tx.Concerts().FindByIDForUpdate(ctx, concertID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrConcertNotFound)
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		canceled, err := b.Cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		released, err := concert.CancelReservation()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		result, err = tx.Bookings().Update(ctx, canceled)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if _, err := tx.Concerts().Update(ctx, released); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcert(concertID))
			_ = s.cache.InvalidatePattern(ctx, redisrepo.PatternConcertsAll())
			_ = s.events.PublishConcertChanged(ctx, concertID)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
