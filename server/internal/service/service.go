// Package service implements collection, node and lookup operations on top of
// the SQLite store. Every write that depends on the address engine runs its
// read-validate-write sequence inside one transaction while holding the
// shared write lock.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// Services bundles the services that share one database and one write lock.
type Services struct {
	Collections *CollectionService
	Nodes       *NodeService
	Lookup      *LookupService
}

// New wires all services against db. Collection and node writes share a
// lock, so a collection CIDR change and a node assignment cannot interleave.
func New(db *sql.DB, logger *zap.Logger) *Services {
	mu := &sync.Mutex{}
	return &Services{
		Collections: newCollectionService(db, logger, mu),
		Nodes:       newNodeService(db, logger, mu),
		Lookup:      NewLookupService(db, logger),
	}
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, operation string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveQuery(operation, start, dbFailure(err)) }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// dbFailure filters out validation errors so query metrics only count
// storage failures.
func dbFailure(err error) error {
	if err == nil || IsValidationError(err) ||
		errors.Is(err, models.ErrCollectionNotFound) || errors.Is(err, models.ErrNodeNotFound) {
		return nil
	}
	return err
}

// IsValidationError reports whether err is a client input failure rather
// than a storage failure.
func IsValidationError(err error) bool {
	return ValidationReason(err) != ""
}

// ValidationReason classifies a rejected write for metrics and logs.
// It returns "" for errors that are not validation failures.
func ValidationReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cidr.ErrInvalidCIDR):
		return "invalid_cidr"
	case errors.Is(err, cidr.ErrNotPrivateRange):
		return "not_private"
	case errors.Is(err, cidr.ErrOverlapsExisting):
		return "overlap"
	case errors.Is(err, cidr.ErrInvalidAddress):
		return "invalid_ip"
	case errors.Is(err, cidr.ErrAddressNotInRange):
		return "outside_collection"
	case errors.Is(err, models.ErrMissingCollectionFields), errors.Is(err, models.ErrMissingNodeFields):
		return "missing_fields"
	case errors.Is(err, models.ErrInvalidPort):
		return "invalid_port"
	case errors.Is(err, models.ErrCollectionHasStrayNodes):
		return "stray_nodes"
	case errors.Is(err, models.ErrInvalidRequest):
		return "invalid_request"
	default:
		return ""
	}
}

// recordRejection counts and logs a validation failure.
func recordRejection(logger *zap.Logger, resource string, err error, fields ...zap.Field) {
	reason := ValidationReason(err)
	if reason == "" {
		return
	}
	metrics.ValidationFailures.WithLabelValues(resource, reason).Inc()
	logger.Info("write rejected", append(fields, zap.String("resource", resource), zap.String("reason", reason), zap.Error(err))...)
}

// refreshInventory updates the collection and node gauges.
func refreshInventory(ctx context.Context, q querier) error {
	var collections, assigned, unassigned int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&collections); err != nil {
		return fmt.Errorf("failed to count collections: %w", err)
	}
	if err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN collection_id IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN collection_id IS NULL THEN 1 ELSE 0 END), 0)
		FROM nodes
	`).Scan(&assigned, &unassigned); err != nil {
		return fmt.Errorf("failed to count nodes: %w", err)
	}

	metrics.CollectionCount.Set(float64(collections))
	metrics.NodeCount.WithLabelValues("true").Set(float64(assigned))
	metrics.NodeCount.WithLabelValues("false").Set(float64(unassigned))
	return nil
}

// RefreshInventory recomputes the inventory gauges, e.g. at startup.
func RefreshInventory(ctx context.Context, db *sql.DB) error {
	return refreshInventory(ctx, db)
}

// loadStored reads every collection as (id, cidr) pairs ordered by id.
func loadStored(ctx context.Context, q querier) ([]cidr.Stored, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, cidr FROM collections ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var stored []cidr.Stored
	for rows.Next() {
		var s cidr.Stored
		if err := rows.Scan(&s.ID, &s.CIDR); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		stored = append(stored, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return stored, nil
}

// matchEntries parses stored collections into match entries, skipping rows
// whose CIDR no longer parses.
func matchEntries(stored []cidr.Stored) []cidr.Entry {
	entries := make([]cidr.Entry, 0, len(stored))
	for _, s := range stored {
		block, err := cidr.ParseCIDR(s.CIDR)
		if err != nil {
			continue
		}
		entries = append(entries, cidr.Entry{ID: s.ID, Block: block})
	}
	return entries
}

func listCollections(ctx context.Context, q querier) ([]models.Collection, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, cidr FROM collections ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	collections := []models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.CIDR); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return collections, nil
}

func getCollection(ctx context.Context, q querier, id int64) (*models.Collection, error) {
	var c models.Collection
	err := q.QueryRowContext(ctx, `SELECT id, name, cidr FROM collections WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CIDR)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return &c, nil
}
