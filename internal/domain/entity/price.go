package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSourceKind tells where a quoted price came from.
type PriceSourceKind string

const (
	PriceFromCache       PriceSourceKind = "cache"
	PriceFromLive        PriceSourceKind = "live"
	PriceFromFallback    PriceSourceKind = "fallback"
	PriceFromUnavailable PriceSourceKind = "unavailable"
)

// PriceCacheEntry is one cached USD price keyed by canonical asset id.
type PriceCacheEntry struct {
	AssetID   string
	PriceUSD  decimal.Decimal
	FetchedAt time.Time
	Source    PriceSourceKind
}

// PriceQuote is the tagged result of a price lookup. It never carries an error:
// an unresolved price is reported as Source=unavailable with a zero price.
type PriceQuote struct {
	AssetID  string
	PriceUSD decimal.Decimal
	Source   PriceSourceKind
}

// Resolved reports whether the quote carries a usable positive price.
func (q PriceQuote) Resolved() bool {
	return q.PriceUSD.IsPositive()
}
