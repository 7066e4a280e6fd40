package entity

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePositionType(t *testing.T) {
	tests := []struct {
		in      string
		want    PositionType
		wantErr bool
	}{
		{in: "supply", want: PositionSupply},
		{in: "Liquidity Pool", want: PositionLiquidityPool},
		{in: "liquidity-pool", want: PositionLiquidityPool},
		{in: "BASKET", want: PositionBasket},
		{in: "", want: PositionOther},
		{in: "yield_farming", want: PositionOther, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePositionType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPositionTypeFromYAML(t *testing.T) {
	var d ProtocolPositionDescriptor
	require.NoError(t, yaml.Unmarshal([]byte("displayName: Curve\npositionType: liquidity_pool\n"), &d))
	assert.Equal(t, "Curve", d.DisplayName)
	assert.Equal(t, PositionLiquidityPool, d.DefaultPositionType)

	assert.Error(t, yaml.Unmarshal([]byte("positionType: lending\n"), &d))
}

func TestReadResult(t *testing.T) {
	zero := NewReadResult(big.NewInt(0), 6)
	assert.Equal(t, ReadZero, zero.Status)
	assert.True(t, zero.Amount().IsZero())

	missing := NewReadResult(nil, 18)
	assert.Equal(t, ReadZero, missing.Status)

	ok := NewReadResult(big.NewInt(1_234_500), 6)
	assert.Equal(t, ReadOK, ok.Status)
	assert.Equal(t, "1.2345", ok.Amount().String())

	failed := FailedRead(errors.New("execution reverted"))
	assert.Equal(t, ReadFailed, failed.Status)
	assert.Equal(t, "failed", failed.Status.String())
	assert.True(t, failed.Amount().IsZero())
}

func TestChainDescriptorRPCURLs(t *testing.T) {
	d := ChainDescriptor{PrimaryRPCURL: "https://a", FallbackRPCURLs: []string{"https://b", "", "https://a"}}
	assert.Equal(t, []string{"https://a", "https://b"}, d.RPCURLs())
}
