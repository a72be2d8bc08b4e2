// Package redis connects the optional record cache. The registry runs fine
// without it; an empty URL means no cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"veracity/internal/platform/config"
)

// Client is a connected go-redis client. New either yields a verified
// connection or nil.
type Client struct {
	*redis.Client
}

// New dials Redis per cfg and verifies the connection with a ping bounded by
// the dial timeout. Returns (nil, nil) when cfg.URL is empty.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers. Used by the readiness
// endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
