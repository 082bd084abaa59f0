package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/kirinyoku/stagepass/internal/service/ports"
)

// Cache is a best-effort JSON cache over redis. Failures are logged and
// reported but must never fail a use case: callers treat a failed Get as a
// miss and ignore write errors.
type Cache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{rdb: client, logger: logger}
}

func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}

	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return "", false, err
	}

	return s, true, nil
}

func (c *Cache) SetString(
	ctx context.Context,
	key string,
	val string,
	ttl time.Duration,
) error {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
		return err
	}

	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache del failed", "keys", keys, "error", err)
		return err
	}

	return nil
}

// InvalidatePattern deletes every key matching the glob pattern. SCAN is
// used instead of KEYS so a large keyspace does not block the server.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	var cursor uint64

	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("cache invalidate failed", "pattern", pattern, "error", err)
			return err
		}

		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("cache invalidate failed", "pattern", pattern, "error", err)
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func GetJSON[T any](ctx context.Context, c ports.Cache, key string) (T, bool, error) {
	var zero T

	s, ok, err := c.GetString(ctx, key)
	if err != nil || !ok {
		return zero, ok, err
	}

	var out T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return zero, false, err
	}

	return out, true, nil
}

func SetJSON(
	ctx context.Context,
	c ports.Cache,
	key string,
	val any,
	ttl time.Duration,
) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.SetString(ctx, key, string(b), ttl)
}

// GetOrSetJSON reads through the cache: on a miss the loader runs, its
// result is cached with the given TTL and returned. The singleflight group
// collapses concurrent misses for the same key into one loader call.
func GetOrSetJSON[T any](
	ctx context.Context,
	c ports.Cache,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := GetJSON[T](ctx, c, key); ok && err == nil {
		return v, nil
	}

	vAny, err, _ := sf.Do(key, func() (any, error) {
		if v2, ok2, err2 := GetJSON[T](ctx, c, key); ok2 && err2 == nil {
			return v2, nil
		}
		v3, err3 := loader(ctx)
		if err3 != nil {
			return nil, err3
		}
		_ = SetJSON(ctx, c, key, v3, ttl)
		return v3, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		var zero T
		return zero, errors.New("type assertion failed")
	}

	return v, nil
}
