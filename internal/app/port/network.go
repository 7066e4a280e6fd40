package port

import (
	"context"

	"portfolio_checker/internal/domain/entity"
)

// BalanceReader reads balances from one EVM chain.
// Reads never return a Go error: failures are reported as entity.ReadFailed results.
type BalanceReader interface {
	// NativeBalance reads the chain's native currency balance of owner.
	NativeBalance(ctx context.Context, owner string) entity.ReadResult

	// TokenBalance reads the ERC20 balance of owner together with the token's decimals.
	// Symbol and Name are filled on a best-effort basis for non-zero balances.
	TokenBalance(ctx context.Context, tokenAddress string, owner string) entity.ReadResult

	// ViewBalance calls method(address) returns (uint256) on contract, assuming 18 decimals.
	ViewBalance(ctx context.Context, contract string, method string, owner string) entity.ReadResult

	// LatestBlock returns the current head block number.
	LatestBlock(ctx context.Context) (uint64, error)

	// Definition returns the chain descriptor associated with this reader.
	Definition() entity.ChainDescriptor
}

// ChainRegistry provides the configured chain descriptors.
type ChainRegistry interface {
	// All returns every configured chain, in configuration order.
	All() []entity.ChainDescriptor

	// ByIdentifier returns a chain by identifier, case-insensitively.
	ByIdentifier(identifier string) (entity.ChainDescriptor, bool)
}

// BalanceReaderProvider provides connected readers per chain.
type BalanceReaderProvider interface {
	GetReader(ctx context.Context, chain entity.ChainDescriptor) (BalanceReader, error)
}
