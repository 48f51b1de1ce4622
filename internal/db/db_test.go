package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitDBCreatesFileAndSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "apps", ".bhub.db")

	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB() error: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("db file not created: %v", err)
	}

	for _, table := range []string{"installs", "install_files"} {
		var count int
		r := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := r.Scan(&count); err != nil {
			t.Fatalf("query schema: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected table %q to exist", table)
		}
	}

	// Basic smoke test: ensure we can insert an install
	if _, err := db.Exec("INSERT INTO installs (slug, revision, install_dir, run_id, installed_at, version) VALUES (?, ?, ?, ?, datetime('now'), ?)", "snake", 3, "/x", "r1", "1.0"); err != nil {
		t.Fatalf("insert install failed: %v", err)
	}
}

func TestInitDBReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), ".bhub.db")
	for i := 0; i < 2; i++ {
		db, err := InitDB(dbPath)
		if err != nil {
			t.Fatalf("InitDB() pass %d: %v", i, err)
		}
		_ = db.Close()
	}
}
