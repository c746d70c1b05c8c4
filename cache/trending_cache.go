// Package cache holds the Redis-backed read caches. Cached data is always
// reconstructable from MySQL; a cache miss or Redis outage degrades to a
// database query, never to an error page.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ratemyfit/model"
)

const (
	trendingKey = "trending:outfits"
	trendingTTL = 30 * time.Second
)

// ErrCacheMiss is returned when no cached trending list exists.
var ErrCacheMiss = errors.New("trending cache miss")

// TrendingCache caches the trending feed between votes.
type TrendingCache struct {
	client *redis.Client
}

// NewTrendingCache creates a TrendingCache over the given Redis client.
func NewTrendingCache(client *redis.Client) *TrendingCache {
	return &TrendingCache{client: client}
}

// Get returns the cached trending list, or ErrCacheMiss.
func (c *TrendingCache) Get(ctx context.Context) ([]model.Outfit, error) {
	if c.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, trendingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get trending cache: %w", err)
	}
	var outfits []model.Outfit
	if err := json.Unmarshal(data, &outfits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trending cache: %w", err)
	}
	return outfits, nil
}

// Set stores a freshly queried trending list.
func (c *TrendingCache) Set(ctx context.Context, outfits []model.Outfit) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(outfits)
	if err != nil {
		return fmt.Errorf("failed to marshal trending list: %w", err)
	}
	if err := c.client.Set(ctx, trendingKey, data, trendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set trending cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached list after a vote or upload so the feed
// reflects it on the next request.
func (c *TrendingCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	// TTL would expire it shortly anyway; ignore errors.
	_ = c.client.Del(ctx, trendingKey).Err()
}
