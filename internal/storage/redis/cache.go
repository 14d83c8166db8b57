// Package redis implements storage.Cache on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"contract-risk-lab/internal/observability"
	"contract-risk-lab/internal/storage"
)

// Cache implements storage.Cache with plain string keys and Redis TTLs.
type Cache struct {
	client *goredis.Client
	prefix string
}

// Options configures a Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, e.g. "risklab:".
	Prefix string
}

// NewCache connects to Redis and verifies the connection.
func NewCache(ctx context.Context, opts Options) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis PING %s: %w", opts.Addr, err)
	}
	return &Cache{client: client, prefix: opts.Prefix}, nil
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *goredis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Compile-time interface check.
var _ storage.Cache = (*Cache)(nil)

// Get returns the value under key. Returns storage.ErrNotFound on miss or expiry.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		observe("get", start, nil)
		return nil, storage.ErrNotFound
	}
	observe("get", start, err)
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	observe("set", start, err)
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("redis", operation, time.Since(start).Seconds(), err)
}
