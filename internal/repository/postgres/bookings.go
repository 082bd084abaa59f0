package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kirinyoku/stagepass/internal/domain"
)

type BookingRepo struct {
	db DB
}

const bookingColumns = `id, concert_id, user_id, status, created_at, updated_at`

// FindByID retrieves a booking by its ID.
//
// Returns:
//   - *domain.Booking: the booking when found.
//   - error: repository.ErrNotFound if absent.
func (r *BookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.FindByID"

	var b domain.Booking
	err := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.ConcertID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// FindByConcertAndUser retrieves the single booking row for a
// (concert, user) pair.
//
// Returns:
//   - *domain.Booking: the booking when found.
//   - error: repository.ErrNotFound if the pair has no booking.
func (r *BookingRepo) FindByConcertAndUser(ctx context.Context, concertID, userID uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.FindByConcertAndUser"

	var b domain.Booking
	err := r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE concert_id = $1 AND user_id = $2`,
		concertID, userID,
	).Scan(&b.ID, &b.ConcertID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

// FindByConcertID lists bookings for a concert, newest first.
func (r *BookingRepo) FindByConcertID(ctx context.Context, concertID uuid.UUID) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.FindByConcertID"

	rows, err := r.db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE concert_id = $1
		 ORDER BY created_at DESC`,
		concertID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out, err := scanBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// FindByUserID lists a user's bookings joined with concert names, newest
// first. Concerts are joined even when soft-deleted so history survives
// concert deletion.
func (r *BookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.BookingWithConcert, error) {
	const op = "postgres.BookingRepo.FindByUserID"

	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.concert_id, b.user_id, b.status, b.created_at, b.updated_at, c.name
		 FROM bookings b
		 JOIN concerts c ON c.id = b.concert_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingWithConcert
	for rows.Next() {
		var bc domain.BookingWithConcert
		if err := rows.Scan(
			&bc.ID, &bc.ConcertID, &bc.UserID, &bc.Status,
			&bc.CreatedAt, &bc.UpdatedAt, &bc.ConcertName,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// FindAll lists every booking with concert name and username, newest first.
func (r *BookingRepo) FindAll(ctx context.Context) ([]domain.BookingWithConcert, error) {
	const op = "postgres.BookingRepo.FindAll"

	rows, err := r.db.Query(ctx,
		`SELECT b.id, b.concert_id, b.user_id, b.status, b.created_at, b.updated_at,
		        c.name, u.username
		 FROM bookings b
		 JOIN concerts c ON c.id = b.concert_id
		 JOIN users u ON u.id = b.user_id
		 ORDER BY b.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingWithConcert
	for rows.Next() {
		var bc domain.BookingWithConcert
		if err := rows.Scan(
			&bc.ID, &bc.ConcertID, &bc.UserID, &bc.Status,
			&bc.CreatedAt, &bc.UpdatedAt, &bc.ConcertName, &bc.Username,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Create inserts a new booking row.
//
// Returns:
//   - *domain.Booking: the booking with generated ID and timestamps.
//   - error: repository.ErrConflict if a row for (concert, user) already
//     exists. The unique index backstops racing reservations for the same
//     user that both passed the existing-booking check.
func (r *BookingRepo) Create(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Create"

	var created domain.Booking
	err := r.db.QueryRow(ctx,
		`INSERT INTO bookings (concert_id, user_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+bookingColumns,
		b.ConcertID, b.UserID, b.Status,
	).Scan(
		&created.ID, &created.ConcertID, &created.UserID,
		&created.Status, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &created, nil
}

// Update writes status and updated_at; ID and created_at never change, so
// a reactivated booking keeps its original identity.
func (r *BookingRepo) Update(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Update"

	var updated domain.Booking
	err := r.db.QueryRow(ctx,
		`UPDATE bookings
		 SET status = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING `+bookingColumns,
		b.ID, b.Status, b.UpdatedAt,
	).Scan(
		&updated.ID, &updated.ConcertID, &updated.UserID,
		&updated.Status, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &updated, nil
}

// CancelAllByConcertID bulk-transitions all RESERVED rows for a concert to
// CANCELED in one statement. This deliberately bypasses Booking.Cancel: the
// per-booking already-canceled guard does not apply to the bulk path.
func (r *BookingRepo) CancelAllByConcertID(ctx context.Context, concertID uuid.UUID) (int64, error) {
	const op = "postgres.BookingRepo.CancelAllByConcertID"

	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, updated_at = now()
		 WHERE concert_id = $1 AND status = $3`,
		concertID, domain.BookingCanceled, domain.BookingReserved,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var out []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.ConcertID, &b.UserID, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, translateDBErr(err)
		}

		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
