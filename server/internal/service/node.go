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
	"github.com/dobriak/mini-ipam/server/internal/logging"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// NodeService provides operations for managing nodes.
//
// A node assigned to a collection must lie inside that collection's block.
// With AutoAssign set and no explicit collection, the most specific
// containing collection is chosen.
type NodeService struct {
	db     *sql.DB
	logger *zap.Logger
	mu     *sync.Mutex
}

// NewNodeService creates a NodeService with its own write lock.
// Use New to share the lock with a CollectionService.
func NewNodeService(db *sql.DB, logger *zap.Logger) *NodeService {
	return newNodeService(db, logger, &sync.Mutex{})
}

func newNodeService(db *sql.DB, logger *zap.Logger, mu *sync.Mutex) *NodeService {
	return &NodeService{
		db:     db,
		logger: logger.With(logging.Component("nodes")),
		mu:     mu,
	}
}

const nodeColumns = `id, ip_address, port, collection_id, name, notes`

// List returns all nodes ordered by id.
func (s *NodeService) List(ctx context.Context) ([]models.Node, error) {
	return s.query(ctx, "nodes.list", `SELECT `+nodeColumns+` FROM nodes ORDER BY id ASC`)
}

// ListByCollection returns the nodes assigned to collection id, or
// models.ErrCollectionNotFound when the collection does not exist.
func (s *NodeService) ListByCollection(ctx context.Context, collectionID int64) ([]models.Node, error) {
	if _, err := getCollection(ctx, s.db, collectionID); err != nil {
		return nil, err
	}
	return s.query(ctx, "nodes.list_by_collection",
		`SELECT `+nodeColumns+` FROM nodes WHERE collection_id = ? ORDER BY id ASC`, collectionID)
}

// Get returns one node or models.ErrNodeNotFound.
func (s *NodeService) Get(ctx context.Context, id int64) (*models.Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load node: %w", err)
	}
	return n, nil
}

// Create validates req and inserts a node.
func (s *NodeService) Create(ctx context.Context, req models.NodeRequest) (*models.Node, error) {
	fields, ip, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created *models.Node
	err = withTx(ctx, s.db, "nodes.create", func(tx *sql.Tx) error {
		collectionID, err := resolveCollection(ctx, tx, ip, fields)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (ip_address, port, collection_id, name, notes)
			VALUES (?, ?, ?, ?, ?)
		`, ip.String(), fields.Port, collectionID, fields.Name, fields.Notes)
		if err != nil {
			return fmt.Errorf("failed to insert node: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read node id: %w", err)
		}

		created = &models.Node{
			ID:           id,
			IPAddress:    ip.String(),
			Port:         fields.Port,
			CollectionID: collectionID,
			Name:         fields.Name,
			Notes:        fields.Notes,
		}
		return refreshInventory(ctx, tx)
	})
	if err != nil {
		recordRejection(s.logger, "node", err, logging.IP(fields.IPAddress))
		return nil, err
	}

	s.logger.Info("node created", logging.NodeID(created.ID), logging.IP(created.IPAddress), collectionField(created.CollectionID))
	return created, nil
}

// Update replaces every field of node id.
func (s *NodeService) Update(ctx context.Context, id int64, req models.NodeRequest) (*models.Node, error) {
	fields, ip, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Node
	err = withTx(ctx, s.db, "nodes.update", func(tx *sql.Tx) error {
		collectionID, err := resolveCollection(ctx, tx, ip, fields)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE nodes
			SET ip_address = ?, port = ?, collection_id = ?, name = ?, notes = ?
			WHERE id = ?
		`, ip.String(), fields.Port, collectionID, fields.Name, fields.Notes, id)
		if err != nil {
			return fmt.Errorf("failed to update node: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if rows == 0 {
			return models.ErrNodeNotFound
		}

		updated = &models.Node{
			ID:           id,
			IPAddress:    ip.String(),
			Port:         fields.Port,
			CollectionID: collectionID,
			Name:         fields.Name,
			Notes:        fields.Notes,
		}
		return refreshInventory(ctx, tx)
	})
	if err != nil {
		recordRejection(s.logger, "node", err, logging.NodeID(id), logging.IP(fields.IPAddress))
		return nil, err
	}

	s.logger.Info("node updated", logging.NodeID(id), logging.IP(updated.IPAddress), collectionField(updated.CollectionID))
	return updated, nil
}

// Delete removes node id.
func (s *NodeService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := withTx(ctx, s.db, "nodes.delete", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete node: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if rows == 0 {
			return models.ErrNodeNotFound
		}
		return refreshInventory(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("node deleted", logging.NodeID(id))
	return nil
}

// prepare runs the checks that need no database access.
func (s *NodeService) prepare(req models.NodeRequest) (models.NodeFields, cidr.Addr, error) {
	fields, err := req.Normalize()
	if err != nil {
		recordRejection(s.logger, "node", err)
		return fields, 0, err
	}
	ip, err := cidr.ParseIPv4(fields.IPAddress)
	if err != nil {
		recordRejection(s.logger, "node", err, logging.IP(fields.IPAddress))
		return fields, 0, err
	}
	return fields, ip, nil
}

// resolveCollection returns the collection id to store for a node at ip.
// An explicit id must exist and contain ip. Without one, AutoAssign picks the
// most specific containing collection, which may be none.
func resolveCollection(ctx context.Context, q querier, ip cidr.Addr, fields models.NodeFields) (*int64, error) {
	if fields.CollectionID != nil {
		c, err := getCollection(ctx, q, *fields.CollectionID)
		if err != nil {
			return nil, err
		}
		block, err := cidr.ParseCIDR(c.CIDR)
		if err != nil {
			return nil, cidr.ErrAddressNotInRange
		}
		if err := cidr.ValidateNode(ip, block); err != nil {
			return nil, err
		}
		return fields.CollectionID, nil
	}

	if !fields.AutoAssign {
		return nil, nil
	}

	stored, err := loadStored(ctx, q)
	if err != nil {
		return nil, err
	}
	id, ok := cidr.FindMostSpecificMatch(ip, matchEntries(stored))
	metrics.RecordLookup(ok)
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (s *NodeService) query(ctx context.Context, operation, query string, args ...any) ([]models.Node, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.ObserveQuery(operation, start, err)
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	err = rows.Err()
	metrics.ObserveQuery(operation, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return nodes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		n            models.Node
		collectionID sql.NullInt64
		name         sql.NullString
		notes        sql.NullString
	)
	if err := row.Scan(&n.ID, &n.IPAddress, &n.Port, &collectionID, &name, &notes); err != nil {
		return nil, err
	}
	if collectionID.Valid {
		n.CollectionID = &collectionID.Int64
	}
	if name.Valid {
		n.Name = &name.String
	}
	if notes.Valid {
		n.Notes = &notes.String
	}
	return &n, nil
}

func collectionField(id *int64) zap.Field {
	if id == nil {
		return zap.Skip()
	}
	return logging.CollectionID(*id)
}
