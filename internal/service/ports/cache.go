package ports

import (
	"context"
	"time"
)

// Cache is a best-effort derived view, authoritative for nothing. Adapters
// log their own failures; callers treat a failed Get as a miss and ignore
// Set/Del/InvalidatePattern errors.
type Cache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// InvalidatePattern removes every key matching a glob pattern with a
	// wildcard suffix, e.g. "concert:123*".
	InvalidatePattern(ctx context.Context, pattern string) error
}
