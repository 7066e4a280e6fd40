package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is the merged multi-chain view of an address.
type PortfolioSnapshot struct {
	Address        string           `json:"address"`
	TotalValueUSD  decimal.Decimal  `json:"totalValueUsd"`
	WalletValueUSD decimal.Decimal  `json:"walletValueUsd"`
	DefiValueUSD   decimal.Decimal  `json:"defiValueUsd"`
	WalletBalances []TokenBalance   `json:"walletBalances"`
	DefiPositions  []DeFiPosition   `json:"defiPositions"`
	ChainsChecked  []string         `json:"chainsChecked"`
	Errors         []PortfolioError `json:"errors,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ChainSnapshot is the single-chain view of an address.
type ChainSnapshot struct {
	Address        string           `json:"address"`
	Chain          string           `json:"chain"`
	WalletBalances []TokenBalance   `json:"walletBalances"`
	DefiPositions  []DeFiPosition   `json:"defiPositions"`
	WalletValueUSD decimal.Decimal  `json:"walletValueUsd"`
	DefiValueUSD   decimal.Decimal  `json:"defiValueUsd"`
	Errors         []PortfolioError `json:"errors,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
