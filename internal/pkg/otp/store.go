package otp

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps one pending code per key with a time-to-live.
type Store interface {
	// Save overwrites any previous code and resets the TTL.
	Save(ctx context.Context, key, code string, ttl time.Duration) error
	// Get reports found=false for absent or expired keys.
	Get(ctx context.Context, key string) (code string, found bool, err error)
	// Delete reports whether this call removed the key. Concurrent callers
	// see deleted=true at most once.
	Delete(ctx context.Context, key string) (deleted bool, err error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.client.Set(ctx, key, code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	code, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
