package networkdefinition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_checker/internal/infrastructure/configloader"
	"portfolio_checker/internal/pkg/logger"
)

func TestNewChainRegistryKeepsOrderAndOverrides(t *testing.T) {
	log := logger.NewZapAdapter(zap.NewNop())
	r := NewChainRegistry(log, []configloader.NetworkConfig{
		{Identifier: "polygon"},
		{Identifier: "Ethereum", PrimaryRPCURL: "http://localhost:8545"},
		{Identifier: "solana"},
		{Identifier: "polygon"},
	})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "polygon", all[0].Identifier)
	assert.Equal(t, "ethereum", all[1].Identifier)
	assert.Equal(t, "http://localhost:8545", all[1].PrimaryRPCURL)
	assert.Equal(t, Ethereum.FallbackRPCURLs, all[1].FallbackRPCURLs)

	def, ok := r.ByIdentifier("ETHEREUM")
	require.True(t, ok)
	assert.Equal(t, uint64(1), def.ChainID)

	_, ok = r.ByIdentifier("bsc")
	assert.False(t, ok, "bsc is known but not configured")

	def, ok = r.ByChainID(137)
	require.True(t, ok)
	assert.Equal(t, "MATIC", def.NativeSymbol)

	assert.ElementsMatch(t, []string{"Pol", "Eth"}, r.AaveTags())
}

func TestKnownDefinitions(t *testing.T) {
	for _, id := range []string{"ethereum", "arbitrum", "polygon", "avalanche", "bsc"} {
		def, ok := Known(id)
		require.True(t, ok, id)
		assert.NotEmpty(t, def.PriceOracleID)
		assert.NotEmpty(t, def.RPCURLs())
		assert.Equal(t, uint8(18), def.NativeDecimals)
	}
	_, ok := Known("base")
	assert.False(t, ok)
}
