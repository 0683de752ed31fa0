package testutil

import (
	"path/filepath"
	"testing"

	"github.com/alexanderramin/implanta/internal/db"
)

// NewTestDB creates an in-memory SQLite store with all migrations applied.
// The store is closed when the test completes.
func NewTestDB(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTestFileDB creates a file-backed SQLite store under t.TempDir(). Use it
// when a test needs several pooled connections.
func NewTestFileDB(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "implanta.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTestUoW creates a UnitOfWork backed by the given test store.
func NewTestUoW(store *db.Store) db.UnitOfWork {
	return db.NewSQLUnitOfWork(store)
}
