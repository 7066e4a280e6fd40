package entity

import "github.com/shopspring/decimal"

// BalanceKind distinguishes plain wallet holdings from protocol positions.
type BalanceKind string

// WalletBalanceKind marks a native or ERC20 balance held directly by the address.
const WalletBalanceKind BalanceKind = "wallet"

// TokenBalance represents a non-zero native or ERC20 balance held by an address on one chain.
type TokenBalance struct {
	Chain        string          `json:"chain"`
	Symbol       string          `json:"symbol"`
	DisplayName  string          `json:"name"`
	TokenAddress string          `json:"tokenAddress,omitempty"`
	Amount       decimal.Decimal `json:"balance"`
	ValueUSD     decimal.Decimal `json:"balanceUsd"`
	Kind         BalanceKind     `json:"type"`
}
