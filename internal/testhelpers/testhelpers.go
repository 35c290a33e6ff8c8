package testhelpers

import (
	"context"
	"os"
	"testing"

	"github.com/stwalsh4118/estate/internal/config"
	"github.com/stwalsh4118/estate/internal/database"
)

// NewTestDatabase connects to the PostgreSQL database named by
// TEST_DATABASE_URL, applies the schema and empties every table. The test is
// skipped in short mode or when the variable is unset. The pool is closed
// when the test completes.
func NewTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, config.DatabaseConfig{URL: url, PoolMin: 1, PoolMax: 5})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	_, err = db.Pool.Exec(ctx, `TRUNCATE offers, property_tag_rel, properties, property_tags, property_types RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate test database: %v", err)
	}

	return db
}

// RedisAddr returns the redis address named by TEST_REDIS_ADDR, skipping the
// test in short mode or when the variable is unset.
func RedisAddr(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: TEST_REDIS_ADDR is not set")
	}
	return addr
}
