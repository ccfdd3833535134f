//go:build e2e

package sql

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yeetbox/yeetbox/pkg/kvs"
)

// startPostgres brings up a disposable PostgreSQL container, mirroring the
// teacher's test/e2e/framework helper for its own metadata store's
// postgres-backed tests.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("yeetbox_e2e"),
		postgres.WithUsername("yeetbox_e2e"),
		postgres.WithPassword("yeetbox_e2e"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

// TestPostgresOpenAndMigrate exercises the golang-migrate path Open takes
// for DialectPostgres, which createTestStore's in-memory sqlite path never
// touches.
func TestPostgresOpenAndMigrate(t *testing.T) {
	dsn := startPostgres(t)

	store, err := Open(Config{Dialect: DialectPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	wtx, err := store.BeginWrite(ctx)
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	if err := wtx.Put(kvs.TableFS, []byte("/docs"), []byte("object-1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := wtx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rtx, err := store.BeginRead(ctx)
	if err != nil {
		t.Fatalf("begin read: %v", err)
	}
	defer rtx.Discard()

	value, ok, err := rtx.Get(kvs.TableFS, []byte("/docs"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(value) != "object-1" {
		t.Errorf("expected %q, got %q (ok=%v)", "object-1", value, ok)
	}
}

// TestPostgresReopenReusesMigrations confirms a second Open against the
// same, already-migrated database doesn't fail (golang-migrate must treat
// a no-op migration as success, not as a dirty-schema error).
func TestPostgresReopenReusesMigrations(t *testing.T) {
	dsn := startPostgres(t)

	store1, err := Open(Config{Dialect: DialectPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	store1.Close()

	store2, err := Open(Config{Dialect: DialectPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer store2.Close()
}
