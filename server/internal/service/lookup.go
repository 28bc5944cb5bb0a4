package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
	"github.com/dobriak/mini-ipam/server/internal/logging"
	"github.com/dobriak/mini-ipam/server/internal/metrics"
)

// LookupService answers "which collection would this address belong to".
type LookupService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLookupService creates a LookupService.
func NewLookupService(db *sql.DB, logger *zap.Logger) *LookupService {
	return &LookupService{db: db, logger: logger.With(logging.Component("lookup"))}
}

// Suggest returns the most specific collection containing ip, or a nil
// Match when none does. Collections are scanned in id order, so among equal
// prefixes the oldest collection wins.
func (s *LookupService) Suggest(ctx context.Context, ipText string) (*models.LookupResponse, error) {
	ip, err := cidr.ParseIPv4(ipText)
	if err != nil {
		return nil, err
	}

	collections, err := listCollections(ctx, s.db)
	if err != nil {
		return nil, err
	}

	entries := make([]cidr.Entry, 0, len(collections))
	byID := make(map[int64]models.Collection, len(collections))
	for _, c := range collections {
		block, err := cidr.ParseCIDR(c.CIDR)
		if err != nil {
			s.logger.Warn("skipping unparseable collection", logging.CollectionID(c.ID), logging.CIDR(c.CIDR))
			continue
		}
		entries = append(entries, cidr.Entry{ID: c.ID, Block: block})
		byID[c.ID] = c
	}

	resp := &models.LookupResponse{IP: ip.String()}
	id, ok := cidr.FindMostSpecificMatch(ip, entries)
	metrics.RecordLookup(ok)
	if ok {
		match := byID[id]
		resp.Match = &match
	}
	return resp, nil
}
