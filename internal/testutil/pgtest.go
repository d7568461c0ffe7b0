// Package testutil provides shared test infrastructure for integration tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/payments-core/internal/db"
)

// PGTest connects to POSTGRES_URL, applies the embedded migrations and
// returns the pool. The test is skipped when POSTGRES_URL is not set.
// Cleanup truncates the application tables and closes the pool.
func PGTest(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Fatalf("pgtest: connect: %v", err)
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("pgtest: migrate: %v", err)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE audit_logs, transactions, balances`)
		pool.Close()
	})
	return pool
}
