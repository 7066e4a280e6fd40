package port

import (
	"context"

	"github.com/shopspring/decimal"

	"portfolio_checker/internal/domain/entity"
)

// PriceSource fetches live USD prices by canonical asset id.
type PriceSource interface {
	FetchPrice(ctx context.Context, assetID string) (float64, error)
	FetchPrices(ctx context.Context, assetIDs []string) (map[string]float64, error)
}

// PriceOracle resolves USD prices for token symbols with caching and fallbacks.
type PriceOracle interface {
	Lookup(ctx context.Context, symbol string) entity.PriceQuote
	LookupID(ctx context.Context, assetID string) entity.PriceQuote
	Price(ctx context.Context, symbol string) decimal.Decimal
	// Preload warms the cache for symbols with one batched request.
	Preload(ctx context.Context, symbols []string) error
}
