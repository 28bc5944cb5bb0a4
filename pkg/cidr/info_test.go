package cidr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		cidr string
		want Info
	}{
		{
			cidr: "192.168.1.0/24",
			want: Info{
				Network: "192.168.1.0", Netmask: "255.255.255.0", Prefix: 24,
				Broadcast: "192.168.1.255", FirstUsable: "192.168.1.1", LastUsable: "192.168.1.254",
				TotalIPs: 256, UsableIPs: 254,
			},
		},
		{
			cidr: "10.0.0.0/30",
			want: Info{
				Network: "10.0.0.0", Netmask: "255.255.255.252", Prefix: 30,
				Broadcast: "10.0.0.3", FirstUsable: "10.0.0.1", LastUsable: "10.0.0.2",
				TotalIPs: 4, UsableIPs: 2,
			},
		},
		{
			cidr: "10.0.0.8/31",
			want: Info{
				Network: "10.0.0.8", Netmask: "255.255.255.254", Prefix: 31,
				Broadcast: "10.0.0.9", FirstUsable: "10.0.0.8", LastUsable: "10.0.0.9",
				TotalIPs: 2, UsableIPs: 2,
			},
		},
		{
			cidr: "172.16.0.1/32",
			want: Info{
				Network: "172.16.0.1", Netmask: "255.255.255.255", Prefix: 32,
				Broadcast: "172.16.0.1", FirstUsable: "172.16.0.1", LastUsable: "172.16.0.1",
				TotalIPs: 1, UsableIPs: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(MustParseCIDR(tt.cidr)))
		})
	}
}

func TestIPRangeMatchesRange(t *testing.T) {
	b := MustParseCIDR("172.16.0.0/12")
	r := b.IPRange()
	assert.Equal(t, "172.16.0.0", r.From().String())
	assert.Equal(t, "172.31.255.255", r.To().String())
	assert.True(t, r.IsValid())
}
