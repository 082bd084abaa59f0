package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgres "github.com/kirinyoku/stagepass/internal/repository/postgres"
	"github.com/kirinyoku/stagepass/internal/service/ports"
)

// maxAttempts bounds re-runs of a transaction body after a serialization
// failure. Business errors are never retried.
const maxAttempts = 3

// UoW implements ports.UnitOfWork over the postgres store. The body runs
// inside one transaction and sees a tx-bound repository view; after-commit
// hooks run once the commit succeeds, before Do returns. A body that fails
// on a serialization conflict is re-run from scratch, hooks included.
type UoW struct {
	store *postgres.Store
}

func NewUoW(store *postgres.Store) *UoW {
	return &UoW{store: store}
}

func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx ports.Repos, after func(ports.AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx ports.Repos, after func(ports.AfterCommit)) error,
) error {
	var hooks []ports.AfterCommit

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		hooks = hooks[:0]

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgres.DB) error {
			return fn(ctx, u.store.WithTx(tx), func(h ports.AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil {
			break
		}

		if !postgres.IsRetryable(err) {
			return err
		}
	}
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
