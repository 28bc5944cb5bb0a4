package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
	"github.com/dobriak/mini-ipam/server/internal/logging"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// CollectionService provides operations for managing collections.
//
// Create and Update are the validation gate for the collection invariants:
// the CIDR parses, lies in RFC1918 space and overlaps no other collection.
type CollectionService struct {
	db     *sql.DB
	logger *zap.Logger
	mu     *sync.Mutex
}

// NewCollectionService creates a CollectionService with its own write lock.
// Use New to share the lock with a NodeService.
func NewCollectionService(db *sql.DB, logger *zap.Logger) *CollectionService {
	return newCollectionService(db, logger, &sync.Mutex{})
}

func newCollectionService(db *sql.DB, logger *zap.Logger, mu *sync.Mutex) *CollectionService {
	return &CollectionService{
		db:     db,
		logger: logger.With(logging.Component("collections")),
		mu:     mu,
	}
}

// List returns all collections ordered by id.
func (s *CollectionService) List(ctx context.Context) ([]models.Collection, error) {
	start := time.Now()
	collections, err := listCollections(ctx, s.db)
	metrics.ObserveQuery("collections.list", start, err)
	return collections, err
}

// Get returns one collection or models.ErrCollectionNotFound.
func (s *CollectionService) Get(ctx context.Context, id int64) (*models.Collection, error) {
	return getCollection(ctx, s.db, id)
}

// Create validates req against every stored collection and inserts it.
// The stored CIDR is the canonical form of the block.
func (s *CollectionService) Create(ctx context.Context, req *models.CollectionRequest) (*models.Collection, error) {
	if err := req.Normalize(); err != nil {
		recordRejection(s.logger, "collection", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var created *models.Collection
	err := withTx(ctx, s.db, "collections.create", func(tx *sql.Tx) error {
		stored, err := loadStored(ctx, tx)
		if err != nil {
			return err
		}

		block, err := cidr.ValidateCollection(req.CIDR, stored, 0)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `INSERT INTO collections (name, cidr) VALUES (?, ?)`, req.Name, block.String())
		if err != nil {
			return fmt.Errorf("failed to insert collection: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read collection id: %w", err)
		}

		created = &models.Collection{ID: id, Name: req.Name, CIDR: block.String()}
		return refreshInventory(ctx, tx)
	})
	if err != nil {
		recordRejection(s.logger, "collection", err, logging.CIDR(req.CIDR))
		return nil, err
	}

	s.logger.Info("collection created",
		logging.CollectionID(created.ID),
		logging.CIDR(created.CIDR),
		zap.String("name", created.Name),
	)
	return created, nil
}

// Update replaces the name and CIDR of collection id. The collection is
// excluded from its own overlap check. A CIDR change that would leave
// assigned nodes outside the new block fails with
// models.ErrCollectionHasStrayNodes.
func (s *CollectionService) Update(ctx context.Context, id int64, req *models.CollectionRequest) (*models.Collection, error) {
	if err := req.Normalize(); err != nil {
		recordRejection(s.logger, "collection", err, logging.CollectionID(id))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *models.Collection
	err := withTx(ctx, s.db, "collections.update", func(tx *sql.Tx) error {
		if _, err := getCollection(ctx, tx, id); err != nil {
			return err
		}

		stored, err := loadStored(ctx, tx)
		if err != nil {
			return err
		}

		block, err := cidr.ValidateCollection(req.CIDR, stored, id)
		if err != nil {
			return err
		}

		stray, err := countStrayNodes(ctx, tx, id, block)
		if err != nil {
			return err
		}
		if stray > 0 {
			return fmt.Errorf("%w: %d node(s)", models.ErrCollectionHasStrayNodes, stray)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE collections SET name = ?, cidr = ? WHERE id = ?`,
			req.Name, block.String(), id); err != nil {
			return fmt.Errorf("failed to update collection: %w", err)
		}

		updated = &models.Collection{ID: id, Name: req.Name, CIDR: block.String()}
		return nil
	})
	if err != nil {
		recordRejection(s.logger, "collection", err, logging.CollectionID(id), logging.CIDR(req.CIDR))
		return nil, err
	}

	s.logger.Info("collection updated", logging.CollectionID(id), logging.CIDR(updated.CIDR))
	return updated, nil
}

// Delete removes collection id. Nodes assigned to it keep their
// collection_id.
func (s *CollectionService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := withTx(ctx, s.db, "collections.delete", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if rows == 0 {
			return models.ErrCollectionNotFound
		}
		return refreshInventory(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("collection deleted", logging.CollectionID(id))
	return nil
}

// Info describes the block of collection id and counts its nodes.
func (s *CollectionService) Info(ctx context.Context, id int64) (*models.CollectionInfo, error) {
	c, err := getCollection(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	block, err := cidr.ParseCIDR(c.CIDR)
	if err != nil {
		return nil, fmt.Errorf("stored CIDR %q for collection %d: %w", c.CIDR, id, err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE collection_id = ?`, id).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}

	d := cidr.Describe(block)
	return &models.CollectionInfo{
		Collection:  *c,
		Network:     d.Network,
		Netmask:     d.Netmask,
		Prefix:      d.Prefix,
		Broadcast:   d.Broadcast,
		FirstUsable: d.FirstUsable,
		LastUsable:  d.LastUsable,
		TotalIPs:    d.TotalIPs,
		UsableIPs:   d.UsableIPs,
		NodeCount:   count,
	}, nil
}

// countStrayNodes counts nodes assigned to collection id whose address lies
// outside block. Unparseable addresses count as stray.
func countStrayNodes(ctx context.Context, q querier, id int64, block cidr.Block) (int, error) {
	rows, err := q.QueryContext(ctx, `SELECT ip_address FROM nodes WHERE collection_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to list collection nodes: %w", err)
	}
	defer rows.Close()

	stray := 0
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return 0, fmt.Errorf("failed to scan node: %w", err)
		}
		ip, err := cidr.ParseIPv4(text)
		if err != nil || cidr.ValidateNode(ip, block) != nil {
			stray++
		}
	}
	return stray, rows.Err()
}
