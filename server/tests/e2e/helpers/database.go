// Package helpers provides the database, server and HTTP client plumbing
// shared by the end-to-end scenarios.
package helpers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/dobriak/mini-ipam/server/internal/database"
)

// TestDB wraps a test database connection with cleanup.
type TestDB struct {
	DB   *sql.DB
	Path string
	t    *testing.T
}

// NewTestDB creates a migrated SQLite database file in a temporary
// directory. It is closed and removed when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := database.Open(ctx, dbPath, database.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(ctx, db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{DB: db, Path: dbPath, t: t}
}

// Exec runs a raw statement, failing the test on error. Scenarios use it
// to plant data the API would refuse.
func (d *TestDB) Exec(query string, args ...any) {
	d.t.Helper()
	if _, err := d.DB.Exec(query, args...); err != nil {
		d.t.Fatalf("exec %q: %v", query, err)
	}
}

// Count returns SELECT COUNT(*) for the given table.
func (d *TestDB) Count(table string) int {
	d.t.Helper()
	var n int
	if err := d.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		d.t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// TestLogger returns a logger that writes through t.Log.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}
