package ports

import "context"

// AfterCommit is a hook that runs after a successful transaction commit and
// before the mutating call returns. Cache invalidation and change
// notifications are registered here so they never fire for rolled-back work.
type AfterCommit func(ctx context.Context)

// UnitOfWork runs fn inside a single atomic transaction: every repository
// call made through tx commits or rolls back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Repos, after func(AfterCommit)) error) error
}
