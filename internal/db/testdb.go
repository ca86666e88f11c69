package db

import (
	"context"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh SQLite database file in a temporary directory
// with the schema applied. A file is used instead of :memory: so that every
// pooled connection sees the same database.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(string(SQLite), filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
