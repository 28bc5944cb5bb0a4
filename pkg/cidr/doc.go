// Package cidr is the IPv4 addressing engine shared by the mini-ipam server and CLI.
//
// Addresses are packed into 32-bit integers, blocks carry their network address
// and mask, and every operation is a pure function over immutable values, so the
// package is safe for concurrent use without locking.
//
// # Parsing
//
//	ip, err := cidr.ParseIPv4("192.168.1.5")
//	block, err := cidr.ParseCIDR("192.168.1.0/24")
//
// Octets must be decimal and in [0, 255]; leading zeros are accepted ("01" is 1).
// Host bits in a CIDR are zeroed, so "192.168.1.77/24" yields 192.168.1.0/24.
//
// # Collection validation
//
// ValidateCollection is the gate a store calls before persisting a collection:
// the candidate must parse, must sit inside RFC 1918 space and must not overlap
// any other stored collection.
//
//	block, err := cidr.ValidateCollection("10.1.0.0/16", stored, 0)
//	var overlap *cidr.OverlapError
//	if errors.As(err, &overlap) {
//	    // overlap.ConflictID names the colliding collection
//	}
//
// # Matching
//
// FindMostSpecificMatch scans entries in the order supplied and returns the
// containing block with the longest prefix. Equal prefixes keep the first entry
// seen, so callers that need a stable answer must sort before calling.
package cidr
