package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
)

type ConcertRepo struct {
	db DB
}

const concertColumns = `id, name, COALESCE(description, ''), total_seats, reserved_seats,
	created_at, updated_at, deleted_at`

// FindByID retrieves a concert by its ID, excluding soft-deleted rows.
//
// Returns:
//   - *domain.Concert: the concert when found.
//   - error: repository.ErrNotFound if absent or soft-deleted.
func (r *ConcertRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Concert, error) {
	const op = "postgres.ConcertRepo.FindByID"

	var c domain.Concert
	err := r.db.QueryRow(ctx,
		`SELECT `+concertColumns+`
		 FROM concerts
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.Description, &c.TotalSeats, &c.ReservedSeats,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &c, nil
}

// FindByIDForUpdate retrieves a concert and locks its row until the
// surrounding transaction ends. Concurrent reservations for the same
// concert serialize here, so the loser of a last-seat race observes the
// winner's committed seat count.
func (r *ConcertRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Concert, error) {
	const op = "postgres.ConcertRepo.FindByIDForUpdate"

	var c domain.Concert
	err := r.db.QueryRow(ctx,
		`SELECT `+concertColumns+`
		 FROM concerts
		 WHERE id = $1 AND deleted_at IS NULL
		 FOR UPDATE`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.Description, &c.TotalSeats, &c.ReservedSeats,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &c, nil
}

// FindAll lists non-deleted concerts, newest first.
func (r *ConcertRepo) FindAll(ctx context.Context) ([]domain.Concert, error) {
	const op = "postgres.ConcertRepo.FindAll"

	rows, err := r.db.Query(ctx,
		`SELECT `+concertColumns+`
		 FROM concerts
		 WHERE deleted_at IS NULL
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Concert
	for rows.Next() {
		var c domain.Concert
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.TotalSeats, &c.ReservedSeats,
			&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// Create persists a new concert and returns it with the generated ID and
// timestamps.
func (r *ConcertRepo) Create(ctx context.Context, c domain.Concert) (*domain.Concert, error) {
	const op = "postgres.ConcertRepo.Create"

	var created domain.Concert
	err := r.db.QueryRow(ctx,
		`INSERT INTO concerts (name, description, total_seats, reserved_seats)
		 VALUES ($1, NULLIF($2, ''), $3, $4)
		 RETURNING `+concertColumns,
		c.Name, c.Description, c.TotalSeats, c.ReservedSeats,
	).Scan(
		&created.ID, &created.Name, &created.Description,
		&created.TotalSeats, &created.ReservedSeats,
		&created.CreatedAt, &created.UpdatedAt, &created.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &created, nil
}

// Update writes the full concert state, including seat counts and the
// soft-delete marker.
func (r *ConcertRepo) Update(ctx context.Context, c domain.Concert) (*domain.Concert, error) {
	const op = "postgres.ConcertRepo.Update"

	var updated domain.Concert
	err := r.db.QueryRow(ctx,
		`UPDATE concerts
		 SET name = $2,
		     description = NULLIF($3, ''),
		     reserved_seats = $4,
		     updated_at = $5,
		     deleted_at = $6
		 WHERE id = $1
		 RETURNING `+concertColumns,
		c.ID, c.Name, c.Description, c.ReservedSeats, c.UpdatedAt, c.DeletedAt,
	).Scan(
		&updated.ID, &updated.Name, &updated.Description,
		&updated.TotalSeats, &updated.ReservedSeats,
		&updated.CreatedAt, &updated.UpdatedAt, &updated.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &updated, nil
}
