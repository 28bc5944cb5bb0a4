package cidr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCollection(t *testing.T) {
	existing := []Stored{{ID: 1, CIDR: "192.168.10.0/24"}}

	tests := []struct {
		name      string
		candidate string
		excludeID int64
		wantErr   error
		wantBlock string
	}{
		{name: "out of range octets", candidate: "300.300.0.0/24", wantErr: ErrInvalidCIDR},
		{name: "malformed", candidate: "192.168.1.0", wantErr: ErrInvalidCIDR},
		{name: "public", candidate: "1.2.3.0/24", wantErr: ErrNotPrivateRange},
		{name: "overlapping subnet", candidate: "192.168.10.128/25", wantErr: ErrOverlapsExisting},
		{name: "overlapping supernet", candidate: "192.168.0.0/16", wantErr: ErrOverlapsExisting},
		{name: "adjacent", candidate: "192.168.11.0/24", wantBlock: "192.168.11.0/24"},
		{name: "self excluded on update", candidate: "192.168.10.0/25", excludeID: 1, wantBlock: "192.168.10.0/25"},
		{name: "other ranges", candidate: "10.0.0.0/8", wantBlock: "10.0.0.0/8"},
		{name: "host bits dropped", candidate: "172.16.4.9/22", wantBlock: "172.16.4.0/22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := ValidateCollection(tt.candidate, existing, tt.excludeID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlock, block.String())
		})
	}
}

func TestValidateCollectionNamesConflict(t *testing.T) {
	existing := []Stored{
		{ID: 4, CIDR: "10.0.0.0/16"},
		{ID: 9, CIDR: "10.1.0.0/16"},
		{ID: 12, CIDR: "10.1.128.0/17"},
	}

	_, err := ValidateCollection("10.1.200.0/24", existing, 0)

	var overlap *OverlapError
	require.True(t, errors.As(err, &overlap))
	assert.Equal(t, int64(9), overlap.ConflictID, "first overlap in order wins")
	assert.Equal(t, "10.1.0.0/16", overlap.ConflictCIDR)
	assert.Equal(t, "CIDR overlaps existing collection", err.Error())
	assert.Contains(t, overlap.Detail(), "collection 9")
}

func TestValidateCollectionSkipsUnparseableStoredEntries(t *testing.T) {
	existing := []Stored{
		{ID: 1, CIDR: "garbage"},
		{ID: 2, CIDR: "999.1.1.1/8"},
	}

	block, err := ValidateCollection("192.168.0.0/16", existing, 0)
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.0/16", block.String())
}

func TestValidateCollectionChecksOrder(t *testing.T) {
	// A public block that would also overlap reports the private-range failure.
	existing := []Stored{{ID: 1, CIDR: "0.0.0.0/0"}}
	_, err := ValidateCollection("8.8.8.0/24", existing, 0)
	assert.ErrorIs(t, err, ErrNotPrivateRange)
}

func TestValidateNode(t *testing.T) {
	block := MustParseCIDR("192.168.50.0/24")

	assert.NoError(t, ValidateNode(MustParseIPv4("192.168.50.10"), block))
	assert.ErrorIs(t, ValidateNode(MustParseIPv4("10.0.0.5"), block), ErrAddressNotInRange)
}

func TestErrorMessagesAreStable(t *testing.T) {
	assert.Equal(t, "Invalid CIDR format", ErrInvalidCIDR.Error())
	assert.Equal(t, "CIDR must be within RFC1918 private ranges", ErrNotPrivateRange.Error())
	assert.Equal(t, "CIDR overlaps existing collection", ErrOverlapsExisting.Error())
	assert.Equal(t, "IP not within collection CIDR", ErrAddressNotInRange.Error())
}
