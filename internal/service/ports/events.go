package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Events broadcasts concert state changes to interested processes.
type Events interface {
	PublishConcertChanged(ctx context.Context, concertID uuid.UUID) error
}

// Limiter rate-limits an operation per caller key. retryAfter is how long
// the caller should wait when not allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
