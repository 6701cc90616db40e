package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const ephemeralKeyPrefix = "hireloop:ephemeral:"

// RedisSlot is an ephemeral Slot kept in one Redis hash per browsing session.
// Every write pushes the idle expiry forward, so abandoned sessions are reclaimed.
type RedisSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisClient creates a Redis client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// NewRedisSlot creates a RedisSlot for namespace with the given idle TTL.
func NewRedisSlot(client *redis.Client, namespace string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{client: client, key: ephemeralKeyPrefix + namespace, ttl: ttl}
}

// Get returns the value stored under key.
func (s *RedisSlot) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return v, true, nil
}

// Set stores value under key and refreshes the idle expiry.
func (s *RedisSlot) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key, key, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Delete removes keys. Redis drops the hash once its last field is gone.
func (s *RedisSlot) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
