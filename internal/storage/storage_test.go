package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
)

// testDB creates an in-memory database for testing
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// =============================================================================
// DB Tests
// =============================================================================

func TestDB_Open_InMemory(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if !db.IsMemory() {
		t.Error("database should be in memory")
	}
	if mode := journalMode(t, db); mode != "memory" {
		t.Errorf("journal_mode = %q, want memory", mode)
	}
}

func TestDB_Open_EmptyPathIsMemory(t *testing.T) {
	db, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if !db.IsMemory() {
		t.Error("empty path should fall back to memory")
	}
}

func TestDB_Open_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.db")

	db, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.IsMemory() {
		t.Error("file database reported as memory")
	}
	if db.path != path {
		t.Errorf("db.path = %v, want %v", db.path, path)
	}
	if mode := journalMode(t, db); mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func journalMode(t *testing.T, db *DB) string {
	t.Helper()
	var mode string
	if err := db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	return mode
}

func TestDB_Migrate_Idempotent(t *testing.T) {
	db := testDB(t)

	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var n int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("applied migrations = %d, want 1", n)
	}
}

// =============================================================================
// LocationStore Tests
// =============================================================================

func TestLocationStore_PutGet(t *testing.T) {
	store := NewLocationStore(testDB(t))

	rec := &core.LocationRecord{IP: "8.8.8.8", City: "Mountain View", CountryCode: "US", ISP: "Google LLC"}
	if err := store.Put("8.8.8.8", rec, "ip-api", time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get("8.8.8.8")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.City != "Mountain View" || got.ISP != "Google LLC" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestLocationStore_Miss(t *testing.T) {
	store := NewLocationStore(testDB(t))

	if _, err := store.Get("1.1.1.1"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestLocationStore_Upsert(t *testing.T) {
	store := NewLocationStore(testDB(t))

	store.Put("1.1.1.1", &core.LocationRecord{City: "Old"}, "a", time.Hour)
	store.Put("1.1.1.1", &core.LocationRecord{City: "New"}, "b", time.Hour)

	got, err := store.Get("1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if got.City != "New" {
		t.Errorf("City = %q, want New", got.City)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestLocationStore_ExpiryAndPurge(t *testing.T) {
	store := NewLocationStore(testDB(t))
	base := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return base }

	store.Put("1.1.1.1", &core.LocationRecord{City: "Short"}, "a", time.Minute)
	store.Put("2.2.2.2", &core.LocationRecord{City: "Long"}, "a", time.Hour)

	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := store.Get("1.1.1.1"); !errors.Is(err, core.ErrCacheMiss) {
		t.Errorf("expired entry should miss, got %v", err)
	}

	removed, err := store.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestLocationStore_PutNil(t *testing.T) {
	store := NewLocationStore(testDB(t))

	if err := store.Put("1.1.1.1", nil, "a", time.Hour); err == nil {
		t.Error("Put(nil) should fail")
	}
}
