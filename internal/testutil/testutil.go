// Package testutil provides shared test helpers for setting up stores and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/vfxhub/internal/recordstore"
	"github.com/starford/vfxhub/internal/storage"
	"github.com/starford/vfxhub/internal/uploads"
)

// TestDB creates a temporary SQLite record store that is automatically cleaned up.
func TestDB(t *testing.T) *recordstore.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vfxhub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := recordstore.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFS creates a temporary directory with a storage.FS rooted at it.
func TestFS(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// TestUploads creates an uploads store served under /uploads on a
// temporary directory.
func TestUploads(t *testing.T, maxBytes int64) (*uploads.Store, *storage.FS) {
	t.Helper()
	fs := TestFS(t)
	return uploads.NewStore(fs, "/uploads", maxBytes), fs
}
