//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/tasklist-api/internal/platform/postgres"
	"github.com/phrazzld/tasklist-api/internal/redact"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// EnvTestDatabaseURL points the tests at an existing database instead of a
// disposable container.
const EnvTestDatabaseURL = "TASKLIST_TEST_DATABASE_URL"

// GetTestDBWithT returns a migrated database with empty tables. It uses
// EnvTestDatabaseURL when set and starts a PostgreSQL container otherwise.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv(EnvTestDatabaseURL)
	if dsn == "" {
		dsn = startContainer(t)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "failed to open %s", redact.String(dsn))
	t.Cleanup(func() { _ = db.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(pingCtx), "database not reachable")

	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, nil))
	CleanupDB(t, db)
	return db
}

func startContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tasklist"),
		tcpostgres.WithUsername("tasklist"),
		tcpostgres.WithPassword("tasklist"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// CleanupDB empties the task tables and resets their sequences.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), "TRUNCATE task_logs, tasks RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
