package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	redisclient "github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// RedisAdapter implements the CacheProvider interface using Redis
type RedisAdapter struct {
	client redis.Cmdable
	prefix string
}

// NewRedisAdapter creates a cache adapter that namespaces every key under prefix.
func NewRedisAdapter(client *redisclient.Client, prefix string) providers.CacheProvider {
	return newRedisAdapter(client.Client(), prefix)
}

func newRedisAdapter(client redis.Cmdable, prefix string) *RedisAdapter {
	return &RedisAdapter{client: client, prefix: prefix}
}

func (a *RedisAdapter) key(k string) string {
	return a.prefix + k
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Get(ctx, a.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	return result, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Set(ctx, a.key(key), value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Incr bumps a counter. The expiry is set only when the counter is created so
// the window is fixed from the first hit.
func (a *RedisAdapter) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	k := a.key(key)
	count, err := a.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	if count == 1 && expirationSeconds > 0 {
		if err := a.client.Expire(ctx, k, time.Duration(expirationSeconds)*time.Second).Err(); err != nil {
			return count, fmt.Errorf("failed to set counter expiry: %w", err)
		}
	}
	return count, nil
}
