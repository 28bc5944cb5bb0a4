package cidr

// Stored is a persisted collection as seen by the validation gate.
type Stored struct {
	ID   int64
	CIDR string
}

// ValidateCollection checks a candidate collection CIDR against the stored
// collections and returns its parsed block.
//
// The checks run in order: the candidate must parse (ErrInvalidCIDR), must be
// private (ErrNotPrivateRange) and must not overlap any stored collection other
// than excludeID (an *OverlapError matching ErrOverlapsExisting). Zero excludes
// nothing. Stored entries whose CIDR does not parse are skipped.
func ValidateCollection(candidate string, existing []Stored, excludeID int64) (Block, error) {
	block, err := ParseCIDR(candidate)
	if err != nil {
		return Block{}, err
	}
	if !IsRFC1918(block) {
		return Block{}, ErrNotPrivateRange
	}

	want := block.Range()
	for _, s := range existing {
		if excludeID != 0 && s.ID == excludeID {
			continue
		}
		other, err := ParseCIDR(s.CIDR)
		if err != nil {
			continue
		}
		if want.Overlaps(other.Range()) {
			return Block{}, &OverlapError{ConflictID: s.ID, ConflictCIDR: s.CIDR}
		}
	}

	return block, nil
}

// ValidateNode checks that a node address lies inside its collection block.
func ValidateNode(ip Addr, block Block) error {
	if !block.Contains(ip) {
		return ErrAddressNotInRange
	}
	return nil
}
