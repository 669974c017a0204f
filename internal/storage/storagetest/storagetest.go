// Package storagetest connects tests to a local Postgres.
package storagetest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"clubverse/internal/storage"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DB returns a migrated database, skipping the test when Postgres is not
// reachable. Tests share the database, so they should use fresh IDs and
// emails rather than expect empty tables.
func DB(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("PGHOST", "localhost"),
		getenv("PGPORT", "5432"),
		getenv("PGUSER", "user"),
		getenv("PGPASSWORD", "password"),
		getenv("PGDATABASE", "testdb"),
	)

	ctx := context.Background()
	db, err := storage.Open(ctx, dsn, storage.PoolConfig{MaxOpenConns: 5})
	if err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}
