package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"contract-risk-lab/internal/storage/migrations"
)

// newTestPool boots a throwaway postgres with the risklab schema applied.
// The container is torn down by t.Cleanup.
func newTestPool(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped with -short")
	}

	ctx := context.Background()
	ready := wait.ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(time.Minute)

	pg, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("risklab"),
		tcpostgres.WithUsername("risklab"),
		tcpostgres.WithPassword("risklab"),
		testcontainers.WithWaitStrategy(ready),
	)
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn, WithMaxConns(4))
	require.NoError(t, err, "connect")
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.ApplyPostgres(ctx, pool), "migrate")
	return pool
}

func ptr[T any](v T) *T { return &v }
