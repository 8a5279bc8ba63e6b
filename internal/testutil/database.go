package testutil

import (
	"testing"

	"mcpswitch-go/internal/database"
	"mcpswitch-go/internal/engine"
)

// NewTestStore creates a new in-memory SQLite store with the schema
// migrated. The store is automatically closed when the test completes.
func NewTestStore(t *testing.T, clock engine.Clock) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := store.MigrateUp(); err != nil {
		store.Close()
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
