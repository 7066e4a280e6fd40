package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/app/service"
	"portfolio_checker/internal/infrastructure/catalogloader"
	"portfolio_checker/internal/infrastructure/configloader"
	"portfolio_checker/internal/infrastructure/httpclient"
	clientprovider "portfolio_checker/internal/infrastructure/network/client"
	networkdefinition "portfolio_checker/internal/infrastructure/network/definition"
	"portfolio_checker/internal/pkg/logger"
)

// application holds everything the commands need, wired from one configuration.
type application struct {
	cfg       *configloader.Config
	zapLogger *zap.Logger
	log       port.Logger
	registry  *networkdefinition.ChainRegistry
	catalog   *catalogloader.StaticCatalog
	oracle    port.PriceOracle
	readers   *clientprovider.EVMClientProvider
	portfolio *service.PortfolioServiceImpl
}

func newApplication(configPath string) (*application, error) {
	cfg, err := configloader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.InstallSlogDefault(zapLogger)
	appLogger := logger.NewZapAdapter(zapLogger)

	registry := networkdefinition.NewChainRegistry(appLogger, cfg.Networks)

	catalog, err := catalogloader.Load(cfg.Catalog.Path, appLogger)
	if err != nil {
		return nil, err
	}

	priceSource := httpclient.NewCoinGeckoClient(cfg.CoinGecko, cfg.PriceRequestTimeout(), zapLogger)
	oracle := service.NewPriceOracle(priceSource, service.PriceOracleOptions{
		CacheTTL:       cfg.PriceCacheTTL(),
		RequestTimeout: cfg.PriceRequestTimeout(),
		FallbackPrices: cfg.PriceOracle.FallbackPrices,
	}, appLogger)

	basketTags := make([]string, 0, len(cfg.PriceOracle.BasketEstimates))
	for symbol := range cfg.PriceOracle.BasketEstimates {
		basketTags = append(basketTags, symbol)
	}
	classifier := service.NewTokenClassifier(catalog.Catalog(), registry.AaveTags(), basketTags)
	valuator := service.NewPositionValuator(oracle, cfg.PriceOracle.BasketEstimates, appLogger)

	readers := clientprovider.NewEVMClientProvider(clientprovider.ReaderOptions{
		ConnectionTimeout: cfg.ConnectionTimeout(),
		RPCCallTimeout:    cfg.RPCCallTimeout(),
		MinCallInterval:   cfg.RPCMinInterval(),
	}, appLogger)

	portfolio := service.NewPortfolioService(registry, readers, catalog, classifier, valuator, oracle, appLogger,
		service.PortfolioOptions{
			ChainTimeout:        cfg.ChainTimeout(),
			MaxConcurrentChains: cfg.Portfolio.MaxConcurrentChains,
		})

	return &application{
		cfg:       cfg,
		zapLogger: zapLogger,
		log:       appLogger,
		registry:  registry,
		catalog:   catalog,
		oracle:    oracle,
		readers:   readers,
		portfolio: portfolio,
	}, nil
}

// preloadPrices warms the price cache with every native asset and catalog wallet token.
func (a *application) preloadPrices(ctx context.Context) {
	symbols := make([]string, 0, 64)
	for _, chain := range a.registry.All() {
		symbols = append(symbols, chain.PriceOracleID)
		for _, token := range a.catalog.Catalog().Chain(chain.Identifier).Tokens {
			symbols = append(symbols, token.Symbol)
		}
	}

	start := time.Now()
	if err := a.oracle.Preload(ctx, symbols); err != nil {
		a.log.Warn("Initial price preload failed, prices will be fetched on demand", "error", err)
		return
	}
	a.log.Info("Initial price preload completed", "symbols", len(symbols), "duration", time.Since(start))
}

func (a *application) close() {
	a.readers.Close()
	_ = a.zapLogger.Sync()
}
