package port

import (
	"context"

	"portfolio_checker/internal/domain/entity"
)

// PortfolioService aggregates balances and DeFi positions of an address across chains.
type PortfolioService interface {
	// CheckAddress scans every configured chain. Only entity.ErrInvalidAddress is returned as an error;
	// unavailable chains and failed reads are reported inside the snapshot.
	CheckAddress(ctx context.Context, address string) (*entity.PortfolioSnapshot, error)

	// CheckAddressOnChain scans a single chain.
	CheckAddressOnChain(ctx context.Context, address string, chain string) (*entity.ChainSnapshot, error)

	// Health reports connectivity and the latest block for every configured chain.
	Health(ctx context.Context) map[string]entity.ChainHealth
}
