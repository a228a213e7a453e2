//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
)

// These tests spin up a real Postgres container via testcontainers-go and
// exercise the sink end to end: schema migration, insert, read-back.
// Run with: go test -tags=integration ./pkg/audit/postgres/...

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("taskflow"),
		postgres.WithUsername("taskflow"),
		postgres.WithPassword("taskflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresSinkRecordsAndReadsHistory(t *testing.T) {
	dsn := startContainer(t)
	migrationsPath := "file://" + filepath.Join("migrations")

	require.NoError(t, Migrate(dsn, migrationsPath))

	store, err := New(context.Background(), dsn)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Record(ctx, audit.Entry{
		TaskID: "task-1", TaskName: "compute", Event: "submitted", Timestamp: now,
	}))
	require.NoError(t, store.Record(ctx, audit.Entry{
		TaskID: "task-1", TaskName: "compute", Event: "completed", WorkerID: "thread-0", Timestamp: now.Add(time.Second),
	}))

	history, err := store.History(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "submitted", history[0].Event)
	require.Equal(t, "completed", history[1].Event)
	require.Equal(t, "thread-0", history[1].WorkerID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	dsn := startContainer(t)
	migrationsPath := "file://" + filepath.Join("migrations")

	require.NoError(t, Migrate(dsn, migrationsPath))
	require.NoError(t, Migrate(dsn, migrationsPath))
}
