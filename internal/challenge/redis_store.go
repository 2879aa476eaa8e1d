package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps challenges in Redis with a key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed store. A non-positive ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Issue implements Store.
func (s *RedisStore) Issue(ctx context.Context, nonce string) (string, error) {
	if err := validateNonce(nonce); err != nil {
		return "", err
	}
	value, err := newChallenge()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, keyPrefix+nonce, value, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return value, nil
}

// Consume implements Store. GETDEL makes concurrent consumers race on a single
// server-side operation, so at most one of them sees the value.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (string, error) {
	if err := validateNonce(nonce); err != nil {
		return "", ErrNotFound
	}
	value, err := s.client.GetDel(ctx, keyPrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume challenge: %w", err)
	}
	return value, nil
}
