package cidr

import (
	"strconv"
	"strings"
)

// Addr is an IPv4 address packed big-endian into 32 bits.
type Addr uint32

// ParseIPv4 parses dotted-quad text into an Addr.
//
// The input must be exactly four dot-separated groups of ASCII digits, each
// with a value no greater than 255. Leading zeros are accepted.
func ParseIPv4(s string) (Addr, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, ErrInvalidAddress
	}

	var ip uint32
	for _, part := range parts {
		octet, ok := parseDecimal(part, 255)
		if !ok {
			return 0, ErrInvalidAddress
		}
		ip = ip<<8 | uint32(octet)
	}

	return Addr(ip), nil
}

// MustParseIPv4 is like ParseIPv4 but panics on malformed input.
// Intended for constants and tests.
func MustParseIPv4(s string) Addr {
	ip, err := ParseIPv4(s)
	if err != nil {
		panic("cidr: " + err.Error() + ": " + strconv.Quote(s))
	}
	return ip
}

// String renders the address in canonical dotted-quad form.
func (a Addr) String() string {
	var b strings.Builder
	b.Grow(15)
	for shift := 24; shift >= 0; shift -= 8 {
		b.WriteString(strconv.Itoa(int(uint32(a) >> uint(shift) & 0xFF)))
		if shift > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// Octets returns the four bytes of the address, most significant first.
func (a Addr) Octets() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// AddrFrom4 builds an address from four bytes, most significant first.
func AddrFrom4(b [4]byte) Addr {
	return Addr(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// parseDecimal accepts a non-empty run of ASCII digits whose value is <= max.
func parseDecimal(s string, max int) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > max {
			return 0, false
		}
	}
	return n, true
}
