package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirinyoku/stagepass/internal/domain"
)

type UserRepo struct {
	db DB
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

// FindByID retrieves a user by ID.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: repository.ErrNotFound if absent.
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "postgres.UserRepo.FindByID"

	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

// FindByUsername retrieves a user by their unique username.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: repository.ErrNotFound if absent.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "postgres.UserRepo.FindByUsername"

	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}

// Create inserts a new user.
//
// Returns:
//   - *domain.User: the user with generated ID and timestamps.
//   - error: repository.ErrConflict if the username is taken.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const op = "postgres.UserRepo.Create"

	var created domain.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.Role,
	).Scan(
		&created.ID, &created.Username, &created.PasswordHash,
		&created.Role, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &created, nil
}
