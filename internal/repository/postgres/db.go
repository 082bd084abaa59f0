package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stagepass/internal/service/ports"
)

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the same
// repository code runs against the pool or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Pool-backed repository views for work outside a transaction.
func (s *Store) Concerts() ports.ConcertRepo { return &ConcertRepo{db: s.pool} }
func (s *Store) Bookings() ports.BookingRepo { return &BookingRepo{db: s.pool} }
func (s *Store) Users() ports.UserRepo       { return &UserRepo{db: s.pool} }

// WithTx returns a repository view bound to the given transaction handle.
func (s *Store) WithTx(tx DB) ports.Repos { return txRepos{tx: tx} }

type txRepos struct {
	tx DB
}

func (r txRepos) Concerts() ports.ConcertRepo { return &ConcertRepo{db: r.tx} }
func (r txRepos) Bookings() ports.BookingRepo { return &BookingRepo{db: r.tx} }
func (r txRepos) Users() ports.UserRepo       { return &UserRepo{db: r.tx} }
