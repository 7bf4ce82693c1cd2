package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container and applies the schema.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the schema inline. The embedded migration
// runner lives in the migrations package, which imports this one;
// tests repeat the DDL here to avoid the cycle.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clubs (
			club_id     TEXT PRIMARY KEY,
			creator     TEXT NOT NULL,
			supply      NUMERIC(39, 0) NOT NULL,
			reserve     NUMERIC(39, 0) NOT NULL,
			holders     BIGINT NOT NULL DEFAULT 0,
			completed   BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id           BIGSERIAL PRIMARY KEY,
			club_id      TEXT NOT NULL,
			tx_signature TEXT NOT NULL,
			event_index  INTEGER NOT NULL,
			is_buy       BOOLEAN NOT NULL,
			amount_in    NUMERIC(39, 0) NOT NULL,
			amount_out   NUMERIC(39, 0) NOT NULL,
			price        NUMERIC(39, 0) NOT NULL,
			trader       TEXT NOT NULL,
			timestamp    BIGINT NOT NULL,
			created_at   BIGINT NOT NULL,
			CONSTRAINT trades_event_unique UNIQUE (club_id, tx_signature, event_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_club_timestamp
			ON trades (club_id, timestamp)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to apply schema")
	}
}
