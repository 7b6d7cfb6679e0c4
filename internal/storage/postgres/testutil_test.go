package postgres

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir is relative to this package. The migrations package imports
// this one, so the schema is read from disk instead of its embedded FS.
const migrationsDir = "../migrations/postgres"

// setupTestDB starts a PostgreSQL container with the run, order and trade
// schema applied. The container is terminated when the test ends.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("marketsim"),
		postgres.WithUsername("sim"),
		postgres.WithPassword("sim"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "create pool")
	t.Cleanup(pool.Close)

	schema := os.DirFS(migrationsDir)
	files, err := fs.Glob(schema, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migrations under %s", migrationsDir)

	// fs.Glob returns names in lexical order, which is the apply order.
	for _, f := range files {
		sql, err := fs.ReadFile(schema, f)
		require.NoError(t, err, "read migration %s", f)

		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "apply migration %s", f)
	}

	return pool
}
