package entity

// TokenInfo is a wallet token tracked on a chain.
type TokenInfo struct {
	Symbol  string `yaml:"symbol"`
	Address string `yaml:"address"`
}

// PositionToken is a protocol receipt/debt token tracked on a chain.
// BalanceContract and BalanceMethod optionally name a view method
// `method(address) returns (uint256)` that reports the position instead of balanceOf.
type PositionToken struct {
	Symbol          string `yaml:"symbol"`
	Address         string `yaml:"address"`
	BalanceContract string `yaml:"balanceContract,omitempty"`
	BalanceMethod   string `yaml:"balanceMethod,omitempty"`
}

// ProtocolPositions groups the position tokens of one protocol on one chain.
type ProtocolPositions struct {
	ProtocolKey string
	Tokens      []PositionToken
}

// ChainCatalog lists everything checked for an address on one chain.
type ChainCatalog struct {
	Tokens    []TokenInfo
	Protocols []ProtocolPositions // in catalog document order
}

// PositionCatalog is the immutable, loaded-once table of tokens and protocol positions.
type PositionCatalog struct {
	Protocols map[string]ProtocolPositionDescriptor
	Chains    map[string]ChainCatalog
}

// Chain returns the catalog for a chain identifier; unknown chains yield an empty catalog.
func (c *PositionCatalog) Chain(identifier string) ChainCatalog {
	if c == nil {
		return ChainCatalog{}
	}
	return c.Chains[identifier]
}

// Descriptor returns the protocol descriptor for key, if any.
func (c *PositionCatalog) Descriptor(key string) (ProtocolPositionDescriptor, bool) {
	if c == nil {
		return ProtocolPositionDescriptor{}, false
	}
	d, ok := c.Protocols[key]
	return d, ok
}
