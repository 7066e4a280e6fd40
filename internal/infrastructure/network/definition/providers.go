package networkdefinition

import (
	"fmt"
	"strings"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/infrastructure/configloader"
)

// Predefined chain descriptors.
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.ChainDescriptor{
		Identifier:       "ethereum",
		DisplayName:      "Ethereum",
		ChainID:          1,
		NativeSymbol:     "ETH",
		NativeDecimals:   18,
		PriceOracleID:    "ethereum",
		AaveTag:          "Eth",
		PrimaryRPCURL:    "https://eth.llamarpc.com",
		FallbackRPCURLs:  []string{"https://ethereum-rpc.publicnode.com", "https://rpc.ankr.com/eth"},
		BlockExplorerURL: "https://etherscan.io",
	}
	Arbitrum = entity.ChainDescriptor{
		Identifier:       "arbitrum",
		DisplayName:      "Arbitrum",
		ChainID:          42161,
		NativeSymbol:     "ETH",
		NativeDecimals:   18,
		PriceOracleID:    "ethereum",
		AaveTag:          "Arb",
		PrimaryRPCURL:    "https://arb1.arbitrum.io/rpc",
		FallbackRPCURLs:  []string{"https://arbitrum.llamarpc.com", "https://arbitrum.publicnode.com"},
		BlockExplorerURL: "https://arbiscan.io",
	}
	Polygon = entity.ChainDescriptor{
		Identifier:       "polygon",
		DisplayName:      "Polygon",
		ChainID:          137,
		NativeSymbol:     "MATIC",
		NativeDecimals:   18,
		PriceOracleID:    "matic-network",
		AaveTag:          "Pol",
		PrimaryRPCURL:    "https://polygon-rpc.com",
		FallbackRPCURLs:  []string{"https://polygon.publicnode.com", "https://rpc.ankr.com/polygon"},
		BlockExplorerURL: "https://polygonscan.com",
	}
	Avalanche = entity.ChainDescriptor{
		Identifier:       "avalanche",
		DisplayName:      "Avalanche",
		ChainID:          43114,
		NativeSymbol:     "AVAX",
		NativeDecimals:   18,
		PriceOracleID:    "avalanche-2",
		AaveTag:          "Ava",
		PrimaryRPCURL:    "https://api.avax.network/ext/bc/C/rpc",
		FallbackRPCURLs:  []string{"https://avalanche.public-rpc.com", "https://rpc.ankr.com/avalanche"},
		BlockExplorerURL: "https://snowtrace.io",
	}
	BSC = entity.ChainDescriptor{
		Identifier:       "bsc",
		DisplayName:      "BNB Chain",
		ChainID:          56,
		NativeSymbol:     "BNB",
		NativeDecimals:   18,
		PriceOracleID:    "binancecoin",
		AaveTag:          "Bnb",
		PrimaryRPCURL:    "https://bsc-dataseed1.binance.org",
		FallbackRPCURLs:  []string{"https://bsc-dataseed2.binance.org", "https://bsc.publicnode.com"},
		BlockExplorerURL: "https://bscscan.com",
	}
)

// allKnownDefinitions is a helper to quickly access all hardcoded definitions.
var allKnownDefinitions = map[string]entity.ChainDescriptor{
	Ethereum.Identifier:  Ethereum,
	Arbitrum.Identifier:  Arbitrum,
	Polygon.Identifier:   Polygon,
	Avalanche.Identifier: Avalanche,
	BSC.Identifier:       BSC,
}

// Known returns the predefined descriptor for identifier.
func Known(identifier string) (entity.ChainDescriptor, bool) {
	def, ok := allKnownDefinitions[strings.ToLower(strings.TrimSpace(identifier))]
	return def, ok
}

// ChainRegistry implements port.ChainRegistry over the configured networks.
type ChainRegistry struct {
	logger port.Logger
	chains []entity.ChainDescriptor
	byID   map[string]entity.ChainDescriptor
}

// NewChainRegistry activates the configured networks, applying RPC overrides on top of the
// predefined descriptors. Networks without a predefined descriptor are skipped.
func NewChainRegistry(log port.Logger, networks []configloader.NetworkConfig) *ChainRegistry {
	r := &ChainRegistry{
		logger: log,
		chains: make([]entity.ChainDescriptor, 0, len(networks)),
		byID:   make(map[string]entity.ChainDescriptor, len(networks)),
	}

	for _, netCfg := range networks {
		identifier := strings.ToLower(strings.TrimSpace(netCfg.Identifier))
		if _, duplicate := r.byID[identifier]; duplicate {
			r.logger.Warn("Duplicate network in configuration, skipping", "network", identifier)
			continue
		}
		def, ok := allKnownDefinitions[identifier]
		if !ok {
			r.logger.Warn(fmt.Sprintf("Network '%s' is configured but has no predefined definition. Skipping.", identifier))
			continue
		}
		if netCfg.PrimaryRPCURL != "" {
			def.PrimaryRPCURL = netCfg.PrimaryRPCURL
		}
		if len(netCfg.FallbackRPCURLs) > 0 {
			def.FallbackRPCURLs = append([]string(nil), netCfg.FallbackRPCURLs...)
		}
		if netCfg.DisplayName != "" {
			def.DisplayName = netCfg.DisplayName
		}

		r.chains = append(r.chains, def)
		r.byID[identifier] = def
		r.logger.Debug("Network activated", "network", def.Identifier, "chainId", def.ChainID, "rpc", def.PrimaryRPCURL)
	}

	if len(r.chains) == 0 {
		r.logger.Warn("No networks are active")
	} else {
		r.logger.Info(fmt.Sprintf("ChainRegistry initialized. Active networks: %d", len(r.chains)))
	}
	return r
}

// All returns a copy of the active chains in configuration order.
func (r *ChainRegistry) All() []entity.ChainDescriptor {
	if r == nil {
		return []entity.ChainDescriptor{}
	}
	defsCopy := make([]entity.ChainDescriptor, len(r.chains))
	copy(defsCopy, r.chains)
	return defsCopy
}

// ByIdentifier returns an active chain by identifier.
func (r *ChainRegistry) ByIdentifier(identifier string) (entity.ChainDescriptor, bool) {
	if r == nil {
		return entity.ChainDescriptor{}, false
	}
	def, ok := r.byID[strings.ToLower(strings.TrimSpace(identifier))]
	return def, ok
}

// ByChainID returns an active chain by its numeric chain id.
func (r *ChainRegistry) ByChainID(chainID uint64) (entity.ChainDescriptor, bool) {
	if r == nil {
		return entity.ChainDescriptor{}, false
	}
	for _, def := range r.chains {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.ChainDescriptor{}, false
}

// AaveTags returns the market tags of all active chains, used by the token classifier.
func (r *ChainRegistry) AaveTags() []string {
	tags := make([]string, 0, len(r.chains))
	for _, def := range r.chains {
		if def.AaveTag != "" {
			tags = append(tags, def.AaveTag)
		}
	}
	return tags
}
