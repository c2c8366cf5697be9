// Package redis holds the Redis backed adapters.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RateLimiter is a fixed window counter shared by every replica. It
// implements ports.RateLimiter.
type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return NewRateLimiterWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

func NewRateLimiterWithClient(c *redis.Client) *RateLimiter {
	return &RateLimiter{c: c}
}

// Allow increments the counter of key and starts its window on the first
// hit. It returns whether the hit is within limit and the window's count.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	if strings.TrimSpace(key) == "" {
		return false, 0, errors.New("redis ratelimit: empty key")
	}

	k := keyPrefix + key
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}

	n := incr.Val()
	return n <= limit, n, nil
}

// RetryAfter reports how long until the window of key resets.
func (rl *RateLimiter) RetryAfter(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rl.c.PTTL(ctx, keyPrefix+key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redis ttl")
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (rl *RateLimiter) Ping(ctx context.Context) error {
	return errors.Wrap(rl.c.Ping(ctx).Err(), "redis ping")
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
