package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed windows on Redis, so the
// limit holds across instances. A nil client disables limiting.
type RateLimiter struct {
	client *redis.Client
}

// NewRateLimiter creates a RateLimiter over the given Redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records one request for the key and reports whether it is still
// within limit for the window. Redis errors fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	redisKey := "ratelimit:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("failed to increment rate limit key %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return true, fmt.Errorf("failed to set rate limit window for %s: %w", key, err)
		}
	}
	return count <= int64(limit), nil
}
