package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a session ID has no server-side record,
// either because it expired or was destroyed at logout.
var ErrNoSession = errors.New("session not found")

// Store persists session snapshots server-side, keyed by opaque session ID.
type Store interface {
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, id string) ([]byte, error)
	Refresh(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

const keyPrefix = "session:"

// redisStore implements Store on Redis. The TTL on the key is the session
// expiry; refreshing it implements the sliding window.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+id, data, ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return data, nil
}

func (s *redisStore) Refresh(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, keyPrefix+id, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSession
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}
