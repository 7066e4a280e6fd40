package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/pkg/metrics"
	"portfolio_checker/internal/pkg/utils"
)

const (
	defaultPriceCacheTTL       = 2 * time.Hour
	defaultPriceRequestTimeout = 5 * time.Second
)

// symbolToAssetID maps token symbols onto CoinGecko ids.
var symbolToAssetID = map[string]string{
	"ETH": "ethereum", "WETH": "ethereum", "WETHE": "ethereum",
	"USDC": "usd-coin", "USDCN": "usd-coin", "USDCE": "usd-coin",
	"USDT": "tether", "DAI": "dai",
	"WBTC": "wrapped-bitcoin", "BTCB": "bitcoin", "BTCb": "bitcoin", "tBTC": "tbtc",
	"AAVE": "aave", "AAVEE": "aave",
	"UNI": "uniswap", "LINK": "chainlink", "LINKE": "chainlink",
	"ARB":   "arbitrum",
	"MATIC": "matic-network", "WMATIC": "matic-network",
	"AVAX": "avalanche-2", "WAVAX": "avalanche-2",
	"BNB": "binancecoin", "WBNB": "binancecoin",
	"CAKE": "pancakeswap-token", "GMX": "gmx", "JOE": "joe",
	"CRV": "curve-dao-token", "CVX": "convex-finance",
	"SUSHI": "sushi", "BAL": "balancer",
	"FRAX": "frax", "FXS": "frax-share",
	"stETH": "staked-ether", "wstETH": "wrapped-steth", "WSTETH": "wrapped-steth",
	"rETH": "rocket-pool-eth", "RETH": "rocket-pool-eth",
	"CBETH": "coinbase-wrapped-staked-eth", "cbETH": "coinbase-wrapped-staked-eth",
	"LDO": "lido-dao", "MKR": "maker", "SNX": "havven",
	"LUSD": "liquity-usd", "EURS": "stasis-eurs",
	"AGEUR": "ageur", "JEUR": "jarvis-synthetic-euro",
	"GHST": "aavegotchi", "DPI": "defipulse-index",
	"STMATIC": "lido-staked-matic", "MATICX": "stader-maticx",
	"SAVAX": "benqi-liquid-staked-avax", "sAVAX": "benqi-liquid-staked-avax",
	"MAI": "mimatic", "FDUSD": "first-digital-usd",
	"VERSE": "verse-bitcoin", "stVERSE": "verse-bitcoin", "vTeam": "verse-bitcoin",
}

// AssetIDForSymbol resolves a token symbol to its price-source id.
// Exact matches win, then the upper-cased symbol; anything else is used lower-cased as the id.
func AssetIDForSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if id, ok := symbolToAssetID[symbol]; ok {
		return id
	}
	if id, ok := symbolToAssetID[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// PriceOracleOptions configures a price oracle.
type PriceOracleOptions struct {
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	FallbackPrices map[string]float64 // keyed by asset id
	Now            func() time.Time   // defaults to time.Now
}

// priceOracle implements port.PriceOracle.
type priceOracle struct {
	source         port.PriceSource
	logger         port.Logger
	cache          *cache.Cache
	group          singleflight.Group
	ttl            time.Duration
	requestTimeout time.Duration
	fallback       map[string]decimal.Decimal
	now            func() time.Time
}

// NewPriceOracle creates the process-wide price oracle. It is safe for concurrent use.
func NewPriceOracle(source port.PriceSource, opts PriceOracleOptions, log port.Logger) port.PriceOracle {
	o := &priceOracle{
		source: source,
		logger: log,
		// Staleness is judged against FetchedAt, so go-cache never expires entries itself.
		cache:          cache.New(cache.NoExpiration, 0),
		ttl:            opts.CacheTTL,
		requestTimeout: opts.RequestTimeout,
		fallback:       make(map[string]decimal.Decimal, len(opts.FallbackPrices)),
		now:            opts.Now,
	}
	if o.ttl <= 0 {
		o.ttl = defaultPriceCacheTTL
	}
	if o.requestTimeout <= 0 {
		o.requestTimeout = defaultPriceRequestTimeout
	}
	if o.now == nil {
		o.now = time.Now
	}
	for id, price := range opts.FallbackPrices {
		if price <= 0 {
			log.Warn("Ignoring non-positive fallback price", "assetId", id, "price", price)
			continue
		}
		o.fallback[strings.ToLower(id)] = decimal.NewFromFloat(price)
	}
	return o
}

// Lookup resolves symbol to an asset id and returns its quote.
func (o *priceOracle) Lookup(ctx context.Context, symbol string) entity.PriceQuote {
	return o.LookupID(ctx, AssetIDForSymbol(symbol))
}

// Price returns the USD price of symbol, or zero when unresolved.
func (o *priceOracle) Price(ctx context.Context, symbol string) decimal.Decimal {
	return o.Lookup(ctx, symbol).PriceUSD
}

// LookupID returns a quote for a canonical asset id. Concurrent misses for the same id
// share a single fetch.
func (o *priceOracle) LookupID(ctx context.Context, assetID string) entity.PriceQuote {
	assetID = strings.ToLower(strings.TrimSpace(assetID))
	if assetID == "" {
		return entity.PriceQuote{PriceUSD: decimal.Zero, Source: entity.PriceFromUnavailable}
	}

	if quote, ok := o.cached(assetID); ok {
		metrics.RecordPriceLookup(string(quote.Source))
		return quote
	}

	v, _, _ := o.group.Do(assetID, func() (any, error) {
		if quote, ok := o.cached(assetID); ok {
			return quote, nil
		}
		return o.refresh(ctx, assetID), nil
	})
	quote := v.(entity.PriceQuote)
	metrics.RecordPriceLookup(string(quote.Source))
	return quote
}

// Preload fetches every symbol that has no fresh cache entry in one batched request.
func (o *priceOracle) Preload(ctx context.Context, symbols []string) error {
	ids := make([]string, 0, len(symbols))
	for _, id := range utils.UniqueLower(mapSymbols(symbols)) {
		if _, ok := o.cached(id); !ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	o.logger.Info("Preloading token prices", "ids", len(ids))
	prices, err := o.source.FetchPrices(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to preload %d prices: %w", len(ids), err)
	}

	loaded := 0
	for _, id := range ids {
		price, ok := prices[id]
		if !ok || price <= 0 {
			continue
		}
		o.store(id, decimal.NewFromFloat(price), entity.PriceFromLive)
		loaded++
	}
	o.logger.Info("Finished preloading token prices", "requested", len(ids), "loaded", loaded)
	return nil
}

func (o *priceOracle) cached(assetID string) (entity.PriceQuote, bool) {
	v, found := o.cache.Get(assetID)
	if !found {
		return entity.PriceQuote{}, false
	}
	entry := v.(entity.PriceCacheEntry)
	if o.now().Sub(entry.FetchedAt) >= o.ttl {
		return entity.PriceQuote{}, false
	}
	source := entity.PriceFromCache
	if !entry.PriceUSD.IsPositive() {
		source = entity.PriceFromUnavailable
	}
	return entity.PriceQuote{AssetID: assetID, PriceUSD: entry.PriceUSD, Source: source}, true
}

func (o *priceOracle) refresh(ctx context.Context, assetID string) entity.PriceQuote {
	// The fetch is shared by every waiter, so it must not die with the first caller.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.requestTimeout)
	defer cancel()

	price, err := o.source.FetchPrice(fetchCtx, assetID)
	if err == nil && price > 0 {
		return o.store(assetID, decimal.NewFromFloat(price), entity.PriceFromLive)
	}
	if err == nil {
		err = fmt.Errorf("non-positive price %v", price)
	}

	if fb, ok := o.fallback[assetID]; ok {
		o.logger.Warn("Live price unavailable, using fallback price", "assetId", assetID, "price", fb.String(), "error", err)
		return o.store(assetID, fb, entity.PriceFromFallback)
	}

	o.logger.Warn("No price available for asset", "assetId", assetID, "error", err)
	return o.store(assetID, decimal.Zero, entity.PriceFromUnavailable)
}

func (o *priceOracle) store(assetID string, price decimal.Decimal, source entity.PriceSourceKind) entity.PriceQuote {
	o.cache.Set(assetID, entity.PriceCacheEntry{
		AssetID:   assetID,
		PriceUSD:  price,
		FetchedAt: o.now(),
		Source:    source,
	}, cache.NoExpiration)
	return entity.PriceQuote{AssetID: assetID, PriceUSD: price, Source: source}
}

func mapSymbols(symbols []string) []string {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		ids = append(ids, AssetIDForSymbol(s))
	}
	return ids
}
