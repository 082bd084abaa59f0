package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts hits per key in fixed windows. Coarser than a
// sliding window but a single INCR per request, which is plenty for a
// per-user mutation path.
type FixedWindowLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewFixedWindowLimiter(
	rdb *redis.Client,
	prefix string,
	limit int64,
	window time.Duration,
) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > l.limit {
		ttl, err := l.rdb.TTL(ctx, k).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
