package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration is one schema step. Exactly one of SQL or Apply is set.
type Migration struct {
	Name  string
	SQL   string
	Apply func(ctx context.Context, tx *sql.Tx) error
}

// Migrations lists every schema step in application order.
var Migrations = []Migration{
	{
		Name: "001_create_nodes",
		SQL: `
			CREATE TABLE IF NOT EXISTS nodes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				ip_address TEXT NOT NULL,
				port INTEGER NOT NULL,
				collection_id INTEGER,
				name TEXT,
				notes TEXT
			);
		`,
	},
	{
		Name: "002_create_collections",
		SQL: `
			CREATE TABLE IF NOT EXISTS collections (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				cidr TEXT NOT NULL
			);
		`,
	},
	{
		Name:  "003_backfill_node_columns",
		Apply: backfillNodeColumns,
	},
	{
		Name: "004_create_api_tokens",
		SQL: `
			CREATE TABLE IF NOT EXISTS api_tokens (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				token_hash TEXT NOT NULL UNIQUE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_used_at DATETIME
			);
		`,
	},
	{
		Name: "005_nodes_collection_index",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_nodes_collection_id ON nodes(collection_id);`,
	},
}

// nodeColumns are the columns added to nodes after its first release. Tables
// created before then lack them.
var nodeColumns = []struct {
	name string
	ddl  string
}{
	{name: "collection_id", ddl: "ALTER TABLE nodes ADD COLUMN collection_id INTEGER"},
	{name: "name", ddl: "ALTER TABLE nodes ADD COLUMN name TEXT"},
	{name: "notes", ddl: "ALTER TABLE nodes ADD COLUMN notes TEXT"},
}

// Migrate applies every migration not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its bookkeeping row.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range Migrations {
		if applied[m.Name] {
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		logger.Info("applied migration", zap.String("migration", m.Name))
	}

	return nil
}

// Applied returns the names of recorded migrations.
func Applied(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	return appliedMigrations(ctx, db)
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}
	return applied, nil
}

func runMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if m.Apply != nil {
		if err := m.Apply(ctx, tx); err != nil {
			return err
		}
	} else if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, m.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// backfillNodeColumns adds collection_id, name and notes to a nodes table
// created by an older release.
func backfillNodeColumns(ctx context.Context, tx *sql.Tx) error {
	existing, err := tableColumns(ctx, tx, "nodes")
	if err != nil {
		return err
	}
	for _, col := range nodeColumns {
		if existing[col.name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("failed to add %s column: %w", col.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
