package cidr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIPv4(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Addr
		wantErr bool
	}{
		{name: "zero", input: "0.0.0.0", want: 0},
		{name: "broadcast", input: "255.255.255.255", want: 0xFFFFFFFF},
		{name: "private", input: "192.168.1.1", want: 0xC0A80101},
		{name: "leading zeros accepted", input: "010.001.000.01", want: 0x0A010001},
		{name: "octet too large", input: "256.0.0.1", wantErr: true},
		{name: "three octets", input: "10.0.0", wantErr: true},
		{name: "five octets", input: "10.0.0.0.1", wantErr: true},
		{name: "letters", input: "not.an.ip", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "empty octet", input: "10..0.1", wantErr: true},
		{name: "leading space", input: " 10.0.0.1", wantErr: true},
		{name: "trailing space", input: "10.0.0.1 ", wantErr: true},
		{name: "sign", input: "+10.0.0.1", wantErr: true},
		{name: "negative", input: "10.0.-1.1", wantErr: true},
		{name: "trailing dot", input: "10.0.0.1.", wantErr: true},
		{name: "huge octet", input: "10.0.0.99999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIPv4(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddrStringRoundTrip(t *testing.T) {
	inputs := []string{
		"0.0.0.0",
		"1.2.3.4",
		"10.0.0.1",
		"127.0.0.1",
		"172.31.255.254",
		"192.168.100.200",
		"255.255.255.255",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			ip, err := ParseIPv4(in)
			require.NoError(t, err)
			assert.Equal(t, in, ip.String())
		})
	}
}

func TestAddrStringRoundTripAllOctets(t *testing.T) {
	for v := 0; v <= 255; v++ {
		ip := Addr(uint32(v)<<24 | uint32(v)<<16 | uint32(255-v)<<8 | uint32(v))
		parsed, err := ParseIPv4(ip.String())
		require.NoError(t, err)
		assert.Equal(t, ip, parsed)
	}
}

func TestAddrCanonicalisesLeadingZeros(t *testing.T) {
	ip, err := ParseIPv4("192.168.001.010")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", ip.String())
}

func TestAddrOctets(t *testing.T) {
	assert.Equal(t, [4]byte{192, 168, 1, 2}, MustParseIPv4("192.168.1.2").Octets())
}

func TestAddrFrom4(t *testing.T) {
	ip := MustParseIPv4("172.16.254.3")
	assert.Equal(t, ip, AddrFrom4(ip.Octets()))
}

func TestPrivateBlocks(t *testing.T) {
	blocks := PrivateBlocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, "10.0.0.0/8", blocks[0].String())
	assert.Equal(t, "172.16.0.0/12", blocks[1].String())
	assert.Equal(t, "192.168.0.0/16", blocks[2].String())

	blocks[0] = MustParseCIDR("8.8.8.0/24")
	assert.Equal(t, "10.0.0.0/8", PrivateBlocks()[0].String())
}

func TestMustParseIPv4Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseIPv4("300.1.1.1") })
}
