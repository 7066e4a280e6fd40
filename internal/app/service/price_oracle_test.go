package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/pkg/logger"
)

var nopLog = logger.NewZapAdapter(zap.NewNop())

type fakePriceSource struct {
	mu      sync.Mutex
	prices  map[string]float64
	err     error
	calls   atomic.Int32
	batches atomic.Int32
	gate    chan struct{}
}

func (f *fakePriceSource) FetchPrice(ctx context.Context, assetID string) (float64, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	price, ok := f.prices[assetID]
	if !ok {
		return 0, errors.New("unknown id")
	}
	return price, nil
}

func (f *fakePriceSource) FetchPrices(_ context.Context, assetIDs []string) (map[string]float64, error) {
	f.batches.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64, len(assetIDs))
	for _, id := range assetIDs {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakePriceSource) setPrice(id string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[id] = price
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestOracle(source *fakePriceSource, clock *fakeClock) *priceOracle {
	return NewPriceOracle(source, PriceOracleOptions{
		CacheTTL:       2 * time.Hour,
		RequestTimeout: time.Second,
		FallbackPrices: map[string]float64{"ethereum": 2000, "tbtc": 102000},
		Now:            clock.Now,
	}, nopLog).(*priceOracle)
}

func TestAssetIDForSymbol(t *testing.T) {
	assert.Equal(t, "ethereum", AssetIDForSymbol("WETH"))
	assert.Equal(t, "usd-coin", AssetIDForSymbol("USDCn"))
	assert.Equal(t, "staked-ether", AssetIDForSymbol("stETH"))
	assert.Equal(t, "coinbase-wrapped-staked-eth", AssetIDForSymbol("cbETH"))
	assert.Equal(t, "verse-bitcoin", AssetIDForSymbol("vTeam"))
	assert.Equal(t, "frxeth", AssetIDForSymbol("frxETH"))
}

func TestLookupCachesWithinTTL(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"usd-coin": 1.0}}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	o := newTestOracle(source, clock)
	ctx := context.Background()

	first := o.Lookup(ctx, "USDC")
	assert.Equal(t, entity.PriceFromLive, first.Source)
	assert.True(t, decimal.NewFromInt(1).Equal(first.PriceUSD))

	source.setPrice("usd-coin", 1.01)
	clock.Advance(119 * time.Minute)
	second := o.Lookup(ctx, "USDC")
	assert.Equal(t, entity.PriceFromCache, second.Source)
	assert.True(t, first.PriceUSD.Equal(second.PriceUSD))
	assert.Equal(t, int32(1), source.calls.Load())

	clock.Advance(2 * time.Minute)
	third := o.Lookup(ctx, "USDC")
	assert.Equal(t, entity.PriceFromLive, third.Source)
	assert.True(t, decimal.RequireFromString("1.01").Equal(third.PriceUSD))
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestLookupFallsBackAndCachesFallback(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}, err: errors.New("rate limited")}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	o := newTestOracle(source, clock)
	ctx := context.Background()

	quote := o.LookupID(ctx, "ethereum")
	assert.Equal(t, entity.PriceFromFallback, quote.Source)
	assert.True(t, decimal.NewFromInt(2000).Equal(quote.PriceUSD))

	again := o.Price(ctx, "ETH")
	assert.True(t, decimal.NewFromInt(2000).Equal(again))
	assert.Equal(t, int32(1), source.calls.Load(), "fallback is cached so the source is not hit again")
}

func TestLookupZeroPriceUsesFallback(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"tbtc": 0}}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})

	quote := o.Lookup(context.Background(), "tBTC")
	assert.Equal(t, entity.PriceFromFallback, quote.Source)
	assert.True(t, decimal.NewFromInt(102000).Equal(quote.PriceUSD))
}

func TestNonPositiveFallbackPricesAreIgnored(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}, err: errors.New("rate limited")}
	o := NewPriceOracle(source, PriceOracleOptions{
		FallbackPrices: map[string]float64{"ethereum": -2000, "tether": 0},
		Now:            (&fakeClock{now: time.Unix(0, 0)}).Now,
	}, nopLog)
	ctx := context.Background()

	for _, id := range []string{"ethereum", "tether"} {
		quote := o.LookupID(ctx, id)
		assert.Equal(t, entity.PriceFromUnavailable, quote.Source, id)
		assert.True(t, quote.PriceUSD.IsZero(), id)
	}
}

func TestLookupUnknownAssetCachesZero(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	quote := o.Lookup(ctx, "MYSTERY")
	assert.Equal(t, "mystery", quote.AssetID)
	assert.Equal(t, entity.PriceFromUnavailable, quote.Source)
	assert.True(t, quote.PriceUSD.IsZero())
	assert.False(t, quote.Resolved())

	again := o.Lookup(ctx, "mystery")
	assert.Equal(t, entity.PriceFromUnavailable, again.Source)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestLookupEmptySymbol(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})

	quote := o.Lookup(context.Background(), "  ")
	assert.Equal(t, entity.PriceFromUnavailable, quote.Source)
	assert.Equal(t, int32(0), source.calls.Load())
}

func TestConcurrentLookupsShareOneFetch(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"ethereum": 2500}, gate: make(chan struct{})}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})

	const workers = 16
	var wg sync.WaitGroup
	results := make([]decimal.Decimal, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Price(context.Background(), "WETH")
		}(i)
	}

	require.Eventually(t, func() bool { return source.calls.Load() >= 1 }, time.Second, time.Millisecond)
	// Give the remaining goroutines a chance to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), source.calls.Load())
	for _, r := range results {
		assert.True(t, decimal.NewFromInt(2500).Equal(r))
	}
}

func TestPreloadBatchesMissingIDs(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{"ethereum": 2100, "tether": 1}}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	require.NoError(t, o.Preload(ctx, []string{"ETH", "WETH", "USDT", "UNKNOWN"}))
	assert.Equal(t, int32(1), source.batches.Load())

	assert.Equal(t, entity.PriceFromCache, o.Lookup(ctx, "ETH").Source)
	assert.Equal(t, entity.PriceFromCache, o.Lookup(ctx, "USDT").Source)
	assert.Equal(t, int32(0), source.calls.Load())

	require.NoError(t, o.Preload(ctx, []string{"ETH"}), "fresh ids are skipped")
	assert.Equal(t, int32(1), source.batches.Load())
}

func TestPreloadReturnsSourceError(t *testing.T) {
	source := &fakePriceSource{prices: map[string]float64{}, err: errors.New("down")}
	o := newTestOracle(source, &fakeClock{now: time.Unix(0, 0)})

	assert.Error(t, o.Preload(context.Background(), []string{"ETH"}))
}
