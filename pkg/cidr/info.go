package cidr

import (
	"net/netip"

	"go4.org/netipx"
)

// Info describes the addresses covered by a block.
type Info struct {
	Network     string `json:"network"`
	Netmask     string `json:"netmask"`
	Prefix      int    `json:"prefix"`
	Broadcast   string `json:"broadcast"`
	FirstUsable string `json:"first_usable"`
	LastUsable  string `json:"last_usable"`
	TotalIPs    uint64 `json:"total_ips"`
	UsableIPs   uint64 `json:"usable_ips"`
}

// NetipPrefix converts the block to a netip.Prefix.
func (b Block) NetipPrefix() netip.Prefix {
	return netip.PrefixFrom(netip.AddrFrom4(b.Network.Octets()), b.Prefix)
}

// IPRange converts the block to a netipx.IPRange.
func (b Block) IPRange() netipx.IPRange {
	r := b.Range()
	return netipx.IPRangeFrom(netip.AddrFrom4(r.Start.Octets()), netip.AddrFrom4(r.End.Octets()))
}

// Describe reports network, netmask, broadcast and usable host bounds for b.
//
// Blocks of /31 and /32 have no distinct network or broadcast address, so all
// of their addresses are reported as usable.
func Describe(b Block) Info {
	prefix := b.NetipPrefix()
	last := netipx.PrefixLastIP(prefix)
	total := b.Range().Size()

	info := Info{
		Network:   prefix.Addr().String(),
		Netmask:   Addr(b.Mask).String(),
		Prefix:    b.Prefix,
		Broadcast: last.String(),
		TotalIPs:  total,
	}

	if b.Prefix >= 31 {
		info.FirstUsable = prefix.Addr().String()
		info.LastUsable = last.String()
		info.UsableIPs = total
		return info
	}

	info.FirstUsable = prefix.Addr().Next().String()
	info.LastUsable = last.Prev().String()
	info.UsableIPs = total - 2
	return info
}
