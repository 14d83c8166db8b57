package memory

import (
	"context"
	"sync"
	"time"

	"contract-risk-lab/internal/storage"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-memory implementation of storage.Cache.
// Expired entries are dropped lazily on read.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

// WithClock sets a custom clock function for deterministic expiry.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Compile-time interface check.
var _ storage.Cache = (*Cache)(nil)

// Get returns the value under key. Returns ErrNotFound on miss or expiry.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value under key for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" || ttl <= 0 {
		return storage.ErrInvalidInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: append([]byte(nil), value...), expiresAt: c.now().Add(ttl)}
	return nil
}
