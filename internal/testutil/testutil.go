// Package testutil provides shared test helpers for setting up template
// directories and catalogs.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/docfill/internal/index"
	"github.com/starford/docfill/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary template directory with a storage.FS.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
