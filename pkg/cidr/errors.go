package cidr

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the engine. The messages are part of the API
// contract and are returned verbatim to HTTP clients.
var (
	// ErrInvalidAddress indicates malformed or out-of-range dotted-quad text.
	ErrInvalidAddress = errors.New("Invalid IP address")

	// ErrInvalidCIDR indicates malformed slash notation or a prefix outside [0, 32].
	ErrInvalidCIDR = errors.New("Invalid CIDR format")

	// ErrNotPrivateRange indicates a block whose network address is not in
	// 10.0.0.0/8, 172.16.0.0/12 or 192.168.0.0/16.
	ErrNotPrivateRange = errors.New("CIDR must be within RFC1918 private ranges")

	// ErrOverlapsExisting indicates a block intersecting another collection.
	// Returned wrapped in an *OverlapError.
	ErrOverlapsExisting = errors.New("CIDR overlaps existing collection")

	// ErrAddressNotInRange indicates a node address outside its collection block.
	ErrAddressNotInRange = errors.New("IP not within collection CIDR")
)

// OverlapError names the stored collection a candidate block collides with.
type OverlapError struct {
	// ConflictID is the identifier of the colliding collection.
	ConflictID int64

	// ConflictCIDR is the stored CIDR text of the colliding collection.
	ConflictCIDR string
}

func (e *OverlapError) Error() string {
	return ErrOverlapsExisting.Error()
}

// Is reports whether target is ErrOverlapsExisting.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlapsExisting
}

// Detail returns a message that also names the colliding collection.
func (e *OverlapError) Detail() string {
	return fmt.Sprintf("%s (collection %d, %s)", ErrOverlapsExisting.Error(), e.ConflictID, e.ConflictCIDR)
}
