// Package testutil provides shared test helpers for setting up databases and
// upload directories.
package testutil

import (
	"os"
	"testing"

	"github.com/calder-dev/iterviz/internal/mediastore"
	"github.com/calder-dev/iterviz/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "iterviz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestUploads creates a temporary uploads directory with a mediastore.FS.
func TestUploads(t *testing.T) (string, *mediastore.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := mediastore.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}
