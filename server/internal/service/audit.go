package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"

	"go.uber.org/zap"
	"go4.org/netipx"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
)

// AuditReport lists stored data that no longer satisfies the write-time
// checks, for example after manual edits or a restore from an old backup.
type AuditReport struct {
	Collections int
	Nodes       int

	// Unparseable holds collections whose CIDR text does not parse.
	Unparseable []models.Collection

	// NotPrivate holds collections outside RFC 1918 space.
	NotPrivate []models.Collection

	// Overlaps holds each pair of intersecting collections once.
	Overlaps []OverlapPair

	// StrayNodes holds nodes outside their collection's block.
	StrayNodes []models.Node

	// DanglingNodes holds nodes whose collection id refers to a deleted collection.
	DanglingNodes []models.Node

	// Coverage reports how much of each RFC 1918 range the collections use.
	Coverage []RegionCoverage
}

// OverlapPair is two collections whose blocks intersect.
type OverlapPair struct {
	A, B models.Collection
}

// RegionCoverage is the number of addresses of one private range covered by
// at least one collection.
type RegionCoverage struct {
	Region  string
	Size    uint64
	Covered uint64
}

// Clean reports whether the audit found nothing to fix.
func (r *AuditReport) Clean() bool {
	return len(r.Unparseable) == 0 && len(r.NotPrivate) == 0 && len(r.Overlaps) == 0 &&
		len(r.StrayNodes) == 0 && len(r.DanglingNodes) == 0
}

// Audit re-validates every stored collection and node.
func Audit(ctx context.Context, db *sql.DB) (*AuditReport, error) {
	collections, err := listCollections(ctx, db)
	if err != nil {
		return nil, err
	}
	nodes, err := NewNodeService(db, zap.NewNop()).List(ctx)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{Collections: len(collections), Nodes: len(nodes)}

	type parsed struct {
		c     models.Collection
		block cidr.Block
	}
	valid := make([]parsed, 0, len(collections))
	blocks := make(map[int64]cidr.Block, len(collections))
	var covered netipx.IPSetBuilder

	for _, c := range collections {
		block, err := cidr.ParseCIDR(c.CIDR)
		if err != nil {
			report.Unparseable = append(report.Unparseable, c)
			continue
		}
		if !cidr.IsRFC1918(block) {
			report.NotPrivate = append(report.NotPrivate, c)
		}
		valid = append(valid, parsed{c: c, block: block})
		blocks[c.ID] = block
		covered.AddRange(block.IPRange())
	}

	for i := range valid {
		for j := i + 1; j < len(valid); j++ {
			if valid[i].block.Range().Overlaps(valid[j].block.Range()) {
				report.Overlaps = append(report.Overlaps, OverlapPair{A: valid[i].c, B: valid[j].c})
			}
		}
	}

	known := make(map[int64]bool, len(collections))
	for _, c := range collections {
		known[c.ID] = true
	}
	for _, n := range nodes {
		if n.CollectionID == nil {
			continue
		}
		if !known[*n.CollectionID] {
			report.DanglingNodes = append(report.DanglingNodes, n)
			continue
		}
		block, ok := blocks[*n.CollectionID]
		if !ok {
			continue
		}
		ip, err := cidr.ParseIPv4(n.IPAddress)
		if err != nil || cidr.ValidateNode(ip, block) != nil {
			report.StrayNodes = append(report.StrayNodes, n)
		}
	}

	all, err := covered.IPSet()
	if err != nil {
		return nil, fmt.Errorf("failed to build address set: %w", err)
	}
	for _, region := range cidr.PrivateBlocks() {
		set, err := intersectPrefix(all, region.NetipPrefix())
		if err != nil {
			return nil, fmt.Errorf("failed to build region set: %w", err)
		}
		report.Coverage = append(report.Coverage, RegionCoverage{
			Region:  region.String(),
			Size:    region.Range().Size(),
			Covered: setSize(set),
		})
	}

	return report, nil
}

// intersectPrefix returns the addresses of set that lie inside prefix.
func intersectPrefix(set *netipx.IPSet, prefix netip.Prefix) (*netipx.IPSet, error) {
	var region netipx.IPSetBuilder
	region.AddPrefix(prefix)
	regionSet, err := region.IPSet()
	if err != nil {
		return nil, err
	}

	var b netipx.IPSetBuilder
	b.AddSet(set)
	b.Intersect(regionSet)
	return b.IPSet()
}

func setSize(set *netipx.IPSet) uint64 {
	var total uint64
	for _, r := range set.Ranges() {
		from, to := r.From().As4(), r.To().As4()
		total += uint64(cidr.AddrFrom4(to)) - uint64(cidr.AddrFrom4(from)) + 1
	}
	return total
}
