package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelShop/internal/pkg/config"
)

var client *redis.Client

// SetupCache initializes the connection to the Redis compatible cache server
func SetupCache(cfg config.Cache) *redis.Client {
	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       0, // use default DB
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
	return client
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Store is a small JSON cache over a Redis client.
type Store struct {
	client *redis.Client
}

func NewStore(c *redis.Client) *Store {
	return &Store{client: c}
}

// GetJSON loads key into dst. found is false on a cache miss.
func (s *Store) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value under key with the given expiration
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, expiration).Err()
}

// Delete removes a value from the cache by key
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Locker hands out short-lived exclusive leases backed by SET NX.
type Locker struct {
	client *redis.Client
	token  string
}

func NewLocker(c *redis.Client, owner string) *Locker {
	return &Locker{client: c, token: owner}
}

// TryLock acquires key for ttl. It returns false when someone else holds the lease.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, l.token, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Unlock releases key only if this locker still owns it.
func (l *Locker) Unlock(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, l.client, []string{key}, l.token).Err()
}
