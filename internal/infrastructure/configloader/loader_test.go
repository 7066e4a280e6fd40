package configloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Networks, len(DefaultNetworks))
	assert.Equal(t, 15*time.Second, cfg.ChainTimeout())
	assert.Equal(t, len(DefaultNetworks), cfg.Portfolio.MaxConcurrentChains)
	assert.Equal(t, 50*time.Millisecond, cfg.RPCMinInterval())
	assert.Equal(t, 2*time.Hour, cfg.PriceCacheTTL())
	assert.Equal(t, 5*time.Second, cfg.PriceRequestTimeout())
	assert.Equal(t, 1.0, cfg.PriceOracle.BasketEstimates["GLP"])
	assert.Equal(t, 2000.0, cfg.PriceOracle.FallbackPrices["ethereum"])
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.CoinGecko.BaseURL)
}

func TestLoadReadsFileAndKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8080"
logging:
  level: debug
networks:
  - identifier: polygon
    primaryRpcUrl: https://polygon.example
portfolio:
  chainTimeoutSeconds: 3
  maxConcurrentChains: 2
priceOracle:
  fallbackPrices:
    ethereum: 2500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "https://polygon.example", cfg.Networks[0].PrimaryRPCURL)
	assert.Equal(t, 3*time.Second, cfg.ChainTimeout())
	assert.Equal(t, 2, cfg.Portfolio.MaxConcurrentChains)
	assert.Equal(t, 2500.0, cfg.PriceOracle.FallbackPrices["ethereum"])
	assert.Equal(t, 0.8, cfg.PriceOracle.FallbackPrices["matic-network"], "defaults fill in missing ids")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLYGON_RPC_URL", "https://override.example")
	t.Setenv("COINGECKO_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	var polygonRPC string
	for _, n := range cfg.Networks {
		if n.Identifier == "polygon" {
			polygonRPC = n.PrimaryRPCURL
		}
	}
	assert.Equal(t, "https://override.example", polygonRPC)
	assert.Equal(t, "secret", cfg.CoinGecko.APIKey)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyIdentifier(t *testing.T) {
	_, err := Load(writeConfig(t, "networks:\n  - primaryRpcUrl: http://x\n"))
	assert.ErrorContains(t, err, "identifier is required")
}

func TestValidateRejectsNonPositiveFallbackPrice(t *testing.T) {
	for _, price := range []string{"-5", "0"} {
		_, err := Load(writeConfig(t, "priceOracle:\n  fallbackPrices:\n    ethereum: "+price+"\n"))
		assert.ErrorContains(t, err, "priceOracle.fallbackPrices[ethereum]", "price %s", price)
	}
}
