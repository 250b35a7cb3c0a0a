// Package cachetest connects tests to a real Redis, skipping them when none answers.
package cachetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PixelShop/internal/pkg/env"
)

func resolve(t *testing.T) (string, string) {
	t.Helper()

	hosts := unique(env.GetEnv("CACHE_HOST", ""), "cache", "localhost", "127.0.0.1")
	ports := unique(env.GetEnv("CACHE_PORT", "6379"), "6379")
	password := env.GetEnv("CACHE_PASSWORD", "")

	var lastErr error
	for _, host := range hosts {
		for _, port := range ports {
			client := redis.NewClient(&redis.Options{
				Addr:     fmt.Sprintf("%s:%s", host, port),
				Password: password,
			})

			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			_, err := client.Ping(ctx).Result()
			cancel()
			_ = client.Close()
			if err == nil {
				return fmt.Sprintf("%s:%s", host, port), password
			}
			lastErr = err
		}
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return "", ""
}

// NewClient returns a client on an isolated, flushed database. The database is
// flushed again when the test ends.
func NewClient(t *testing.T, db int) *redis.Client {
	t.Helper()

	addr, password := resolve(t)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush isolated redis db %d: %v", db, err)
	}

	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return client
}

func unique(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
