package database_test

import (
	"testing"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/database"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *database.SQLiteStore {
	t.Helper()
	store := database.NewSQLiteStore(":memory:")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// setupOwner creates a store with one user, who owns the returned gallery.
func setupOwner(
	t *testing.T,
	owner string,
) (
	*database.SQLiteStore,
	int64,
) {
	t.Helper()
	store := setupStore(t)
	if _, err := store.InsertUserIfAbsent(owner, owner+"@example.com", epoch); err != nil {
		t.Fatalf("InsertUserIfAbsent failed: %v", err)
	}
	id, err := store.InsertGallery(owner, "Holiday", "beach pics", epoch)
	if err != nil {
		t.Fatalf("InsertGallery failed: %v", err)
	}
	return store, id
}

func TestNewSQLiteStore_InMemory(t *testing.T) {
	t.Parallel()
	store := setupStore(t)

	// in-memory store is created successfully
	if store == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestNewSQLiteStore_CreatesSchema(t *testing.T) {
	t.Parallel()
	store, galleryID := setupOwner(t, "ann")

	// schema is created - every table accepts rows
	if _, err := store.InsertImage(galleryID, "blob.png", "hash", epoch); err != nil {
		t.Fatalf("schema not created - InsertImage failed: %v", err)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	t.Parallel()
	store := database.NewSQLiteStore(":memory:")

	// closing store succeeds without error
	if err := store.Close(); err != nil {
		t.Errorf("Close() returned error: %v", err)
	}
}

func TestSQLiteStore_Stores(t *testing.T) {
	t.Parallel()
	store := setupStore(t)

	// every store accessor returns the same store instance
	if store.UserStore() != store {
		t.Error("UserStore() should return the same store")
	}
	if store.GalleryStore() != store {
		t.Error("GalleryStore() should return the same store")
	}
	if store.ImageStore() != store {
		t.Error("ImageStore() should return the same store")
	}
}

func TestSQLiteStore_ForeignKeys(t *testing.T) {
	t.Parallel()
	store := setupStore(t)

	// galleries can't reference unknown users
	if _, err := store.InsertGallery("nobody", "Orphan", "", epoch); err == nil {
		t.Error("expected foreign key violation")
	}
}
