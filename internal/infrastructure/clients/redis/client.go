// Package redis owns the optional Redis connection shared by the dashboard
// cache, the route cache and the feedback rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 3 * time.Second

type Client struct {
	rdb *redis.Client
}

// NewClient dials Redis and fails fast when the server does not answer a
// ping, so the caller can continue without a cache.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.RedisAddr(), err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Client() *redis.Client { return c.rdb }

func (c *Client) Close() error { return c.rdb.Close() }
