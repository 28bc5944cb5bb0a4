package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
)

// entries converts collections to engine entries sorted by id, so equal
// prefixes resolve to the oldest collection as they do on the server.
// Collections whose CIDR does not parse are skipped.
func entries(collections []models.Collection) []cidr.Entry {
	sorted := slices.Clone(collections)
	slices.SortFunc(sorted, func(a, b models.Collection) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	out := make([]cidr.Entry, 0, len(sorted))
	for _, c := range sorted {
		block, err := cidr.ParseCIDR(c.CIDR)
		if err != nil {
			continue
		}
		out = append(out, cidr.Entry{ID: c.ID, Block: block})
	}
	return out
}

// suggest returns the most specific collection containing ip, or nil.
func suggest(ip cidr.Addr, collections []models.Collection) *models.Collection {
	id, ok := cidr.FindMostSpecificMatch(ip, entries(collections))
	if !ok {
		return nil
	}
	return findCollection(collections, id)
}

func findCollection(collections []models.Collection, id int64) *models.Collection {
	for i := range collections {
		if collections[i].ID == id {
			return &collections[i]
		}
	}
	return nil
}

func stored(collections []models.Collection) []cidr.Stored {
	out := make([]cidr.Stored, len(collections))
	for i, c := range collections {
		out[i] = cidr.Stored{ID: c.ID, CIDR: c.CIDR}
	}
	return out
}

// checkCollection runs the server's collection gate locally.
func checkCollection(candidate string, collections []models.Collection, excludeID int64) error {
	_, err := cidr.ValidateCollection(candidate, stored(collections), excludeID)
	var overlap *cidr.OverlapError
	if errors.As(err, &overlap) {
		return errors.New(overlap.Detail())
	}
	return err
}

// checkNode verifies that ip lies inside collection id.
func checkNode(ip cidr.Addr, collections []models.Collection, id int64) error {
	c := findCollection(collections, id)
	if c == nil {
		return fmt.Errorf("%w: %d", models.ErrCollectionNotFound, id)
	}
	block, err := cidr.ParseCIDR(c.CIDR)
	if err != nil {
		return err
	}
	if err := cidr.ValidateNode(ip, block); err != nil {
		return fmt.Errorf("%w: %s is outside %s (%s)", err, ip, c.Name, c.CIDR)
	}
	return nil
}
