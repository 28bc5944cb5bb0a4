package cidr

import (
	"strconv"
	"strings"
)

// Block is an IPv4 network derived from an address and a prefix length.
type Block struct {
	// Network is the address with all host bits zeroed.
	Network Addr

	// Mask has the top Prefix bits set.
	Mask uint32

	// Prefix is the prefix length in [0, 32].
	Prefix int
}

// Range is an inclusive span of addresses.
type Range struct {
	Start Addr
	End   Addr
}

// MaskFor returns the netmask with the top prefix bits set.
// Prefix lengths outside [0, 32] are clamped.
func MaskFor(prefix int) uint32 {
	switch {
	case prefix <= 0:
		return 0
	case prefix >= 32:
		return 0xFFFFFFFF
	}
	return 0xFFFFFFFF << uint(32-prefix)
}

// NewBlock builds the block of the given prefix length containing ip.
func NewBlock(ip Addr, prefix int) Block {
	mask := MaskFor(prefix)
	return Block{
		Network: Addr(uint32(ip) & mask),
		Mask:    mask,
		Prefix:  prefix,
	}
}

// ParseCIDR parses "<ipv4>/<prefix>" text into a Block.
//
// The text must contain exactly one slash, the address part must satisfy
// ParseIPv4 and the prefix must be a decimal integer in [0, 32]. Host bits of
// the address are discarded.
func ParseCIDR(s string) (Block, error) {
	addrText, prefixText, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(prefixText, "/") {
		return Block{}, ErrInvalidCIDR
	}

	ip, err := ParseIPv4(addrText)
	if err != nil {
		return Block{}, ErrInvalidCIDR
	}

	prefix, ok := parseDecimal(prefixText, 32)
	if !ok {
		return Block{}, ErrInvalidCIDR
	}

	return NewBlock(ip, prefix), nil
}

// MustParseCIDR is like ParseCIDR but panics on malformed input.
// Intended for constants and tests.
func MustParseCIDR(s string) Block {
	b, err := ParseCIDR(s)
	if err != nil {
		panic("cidr: " + err.Error() + ": " + strconv.Quote(s))
	}
	return b
}

// Contains reports whether ip lies inside the block.
func (b Block) Contains(ip Addr) bool {
	return uint32(ip)&b.Mask == uint32(b.Network)
}

// Range returns the first and last address covered by the block.
func (b Block) Range() Range {
	return Range{
		Start: b.Network,
		End:   Addr(uint32(b.Network) | ^b.Mask),
	}
}

// String renders the block in canonical "<network>/<prefix>" form.
func (b Block) String() string {
	return b.Network.String() + "/" + strconv.Itoa(b.Prefix)
}

// Overlaps reports whether the two inclusive ranges share at least one address.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Size returns the number of addresses in the range.
func (r Range) Size() uint64 {
	return uint64(r.End) - uint64(r.Start) + 1
}

// RFC 1918 private address space.
var privateBlocks = [...]Block{
	NewBlock(0x0A000000, 8),  // 10.0.0.0/8
	NewBlock(0xAC100000, 12), // 172.16.0.0/12
	NewBlock(0xC0A80000, 16), // 192.168.0.0/16
}

// IsRFC1918 reports whether the block's network address falls inside one of
// the RFC 1918 ranges.
//
// Only the network address is tested; the block's own prefix length is not
// compared with the private range's, so 10.0.0.0/7 is accepted even though it
// reaches into 11.0.0.0/8.
func IsRFC1918(b Block) bool {
	for _, private := range privateBlocks {
		if private.Contains(b.Network) {
			return true
		}
	}
	return false
}

// PrivateBlocks returns the RFC 1918 ranges.
func PrivateBlocks() []Block {
	out := privateBlocks
	return out[:]
}
