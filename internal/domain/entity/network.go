package entity

import "slices"

// ChainDescriptor holds the static description of a supported EVM network.
// One descriptor exists per network; descriptors are never mutated after startup.
type ChainDescriptor struct {
	Identifier       string   `json:"identifier" yaml:"identifier"` // e.g. "ethereum", "bsc"
	DisplayName      string   `json:"displayName" yaml:"displayName"`
	ChainID          uint64   `json:"chainId" yaml:"chainId"`
	NativeSymbol     string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals   uint8    `json:"nativeDecimals" yaml:"nativeDecimals"`
	PriceOracleID    string   `json:"priceOracleId" yaml:"priceOracleId"`
	AaveTag          string   `json:"-" yaml:"aaveTag"` // market tag used in Aave token names, e.g. "Eth" in aEthUSDC
	PrimaryRPCURL    string   `json:"-" yaml:"primaryRpcUrl"`
	FallbackRPCURLs  []string `json:"-" yaml:"fallbackRpcUrls"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
}

// RPCURLs returns the primary RPC endpoint followed by the fallbacks, skipping empty and repeated entries.
func (c ChainDescriptor) RPCURLs() []string {
	urls := make([]string, 0, 1+len(c.FallbackRPCURLs))
	for _, url := range append([]string{c.PrimaryRPCURL}, c.FallbackRPCURLs...) {
		if url == "" || slices.Contains(urls, url) {
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// ChainHealth is the liveness state of a single chain connection.
type ChainHealth struct {
	Connected   bool    `json:"connected"`
	LatestBlock *uint64 `json:"block"`
}
