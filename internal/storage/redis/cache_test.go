package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"contract-risk-lab/internal/storage"
)

// redisAddr boots a redis container for the test and returns host:port.
func redisAddr(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration test skipped with -short")
	}

	ctx := context.Background()
	srv, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis")
	t.Cleanup(func() { _ = srv.Terminate(ctx) })

	addr, err := srv.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	return addr
}

func newTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()
	cache, err := NewCache(context.Background(), Options{Addr: redisAddr(t), Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCache_SetGet(t *testing.T) {
	cache := newTestCache(t, "test:")
	ctx := context.Background()
	key := storage.CacheKey("contract", "ethereum", "0xabc")

	_, err := cache.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, cache.Set(ctx, key, []byte(`{"overall":72}`), time.Minute))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"overall":72}`, string(got))
}

func TestCache_ExpiryAndTTLValidation(t *testing.T) {
	cache := newTestCache(t, "test:")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("x"), 100*time.Millisecond))
	time.Sleep(300 * time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, cache.Set(ctx, "bad", []byte("x"), 0), storage.ErrInvalidInput)
}

func TestCache_PrefixIsolation(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: redisAddr(t)})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	a := NewCacheFromClient(client, "a:")
	b := NewCacheFromClient(client, "b:")

	require.NoError(t, a.Set(ctx, "creator:ethereum:0x1", []byte("A"), time.Minute))

	_, err := b.Get(ctx, "creator:ethereum:0x1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	raw, err := client.Get(ctx, "a:creator:ethereum:0x1").Result()
	require.NoError(t, err)
	assert.Equal(t, "A", raw)
}
