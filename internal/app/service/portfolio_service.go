package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/pkg/metrics"
	"portfolio_checker/internal/pkg/utils"
)

const defaultChainTimeout = 15 * time.Second

// Chain scan outcomes recorded in metrics.
const (
	scanCompleted   = "completed"
	scanTimeout     = "timeout"
	scanUnavailable = "unavailable"
	scanCancelled   = "cancelled"
)

// PortfolioOptions tunes the per-chain fan-out.
type PortfolioOptions struct {
	ChainTimeout        time.Duration
	MaxConcurrentChains int
	Now                 func() time.Time
}

// PortfolioServiceImpl implements port.PortfolioService.
type PortfolioServiceImpl struct {
	registry            port.ChainRegistry
	readers             port.BalanceReaderProvider
	catalog             port.CatalogProvider
	classifier          port.TokenClassifier
	valuator            port.PositionValuator
	oracle              port.PriceOracle
	logger              port.Logger
	chainTimeout        time.Duration
	maxConcurrentChains int
	now                 func() time.Time
}

// NewPortfolioService creates a new instance of PortfolioServiceImpl.
func NewPortfolioService(
	registry port.ChainRegistry,
	readers port.BalanceReaderProvider,
	catalog port.CatalogProvider,
	classifier port.TokenClassifier,
	valuator port.PositionValuator,
	oracle port.PriceOracle,
	l port.Logger,
	opts PortfolioOptions,
) *PortfolioServiceImpl {
	if opts.ChainTimeout <= 0 {
		opts.ChainTimeout = defaultChainTimeout
	}
	if opts.MaxConcurrentChains <= 0 {
		opts.MaxConcurrentChains = len(registry.All())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PortfolioServiceImpl{
		registry:            registry,
		readers:             readers,
		catalog:             catalog,
		classifier:          classifier,
		valuator:            valuator,
		oracle:              oracle,
		logger:              l,
		chainTimeout:        opts.ChainTimeout,
		maxConcurrentChains: opts.MaxConcurrentChains,
		now:                 opts.Now,
	}
}

// CheckAddress scans every configured chain in parallel and merges the results.
func (s *PortfolioServiceImpl) CheckAddress(ctx context.Context, address string) (*entity.PortfolioSnapshot, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}

	chains := s.registry.All()
	results := make([]chainResult, len(chains))

	g := new(errgroup.Group)
	if s.maxConcurrentChains > 0 {
		g.SetLimit(s.maxConcurrentChains)
	}
	for i, chain := range chains {
		g.Go(func() error {
			results[i] = s.scanChain(ctx, chain, address)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := &entity.PortfolioSnapshot{
		Address:        address,
		WalletBalances: []entity.TokenBalance{},
		DefiPositions:  []entity.DeFiPosition{},
		ChainsChecked:  make([]string, 0, len(chains)),
		Timestamp:      s.now(),
	}
	for i, chain := range chains {
		snapshot.ChainsChecked = append(snapshot.ChainsChecked, chain.Identifier)
		snapshot.WalletBalances = append(snapshot.WalletBalances, results[i].wallet...)
		snapshot.DefiPositions = append(snapshot.DefiPositions, results[i].positions...)
		snapshot.Errors = append(snapshot.Errors, results[i].errors...)
	}

	sortBalances(snapshot.WalletBalances)
	sortPositions(snapshot.DefiPositions)
	snapshot.WalletValueUSD = walletTotal(snapshot.WalletBalances)
	snapshot.DefiValueUSD = defiTotal(snapshot.DefiPositions)
	snapshot.TotalValueUSD = snapshot.WalletValueUSD.Add(snapshot.DefiValueUSD)

	s.logger.Info("Portfolio check finished",
		"address", address,
		"chains", len(chains),
		"wallet_balances", len(snapshot.WalletBalances),
		"defi_positions", len(snapshot.DefiPositions),
		"errors", len(snapshot.Errors),
		"total_usd", snapshot.TotalValueUSD.StringFixed(2))
	return snapshot, nil
}

// CheckAddressOnChain runs the per-chain pipeline for one chain.
func (s *PortfolioServiceImpl) CheckAddressOnChain(ctx context.Context, address string, chainID string) (*entity.ChainSnapshot, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAddress, address)
	}
	chain, ok := s.registry.ByIdentifier(chainID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownChain, chainID)
	}

	result := s.scanChain(ctx, chain, address)
	sortBalances(result.wallet)
	sortPositions(result.positions)

	return &entity.ChainSnapshot{
		Address:        address,
		Chain:          chain.Identifier,
		WalletBalances: result.wallet,
		DefiPositions:  result.positions,
		WalletValueUSD: walletTotal(result.wallet),
		DefiValueUSD:   defiTotal(result.positions),
		Errors:         result.errors,
		Timestamp:      s.now(),
	}, nil
}

// Health probes every configured chain. Chains that cannot be reached are reported disconnected.
func (s *PortfolioServiceImpl) Health(ctx context.Context) map[string]entity.ChainHealth {
	chains := s.registry.All()
	status := make(map[string]entity.ChainHealth, len(chains))
	var mu sync.Mutex

	g := new(errgroup.Group)
	for _, chain := range chains {
		g.Go(func() error {
			health := s.probe(ctx, chain)
			mu.Lock()
			status[chain.Identifier] = health
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return status
}

func (s *PortfolioServiceImpl) probe(ctx context.Context, chain entity.ChainDescriptor) entity.ChainHealth {
	probeCtx, cancel := context.WithTimeout(ctx, s.chainTimeout)
	defer cancel()

	reader, err := s.readers.GetReader(probeCtx, chain)
	if err != nil {
		s.logger.Warn("Health probe could not connect", "network", chain.Identifier, "error", err)
		return entity.ChainHealth{Connected: false}
	}
	block, err := reader.LatestBlock(probeCtx)
	if err != nil {
		s.logger.Warn("Health probe failed to read latest block", "network", chain.Identifier, "error", err)
		return entity.ChainHealth{Connected: false}
	}
	return entity.ChainHealth{Connected: true, LatestBlock: &block}
}

// chainResult is what one chain contributes to a snapshot.
type chainResult struct {
	wallet    []entity.TokenBalance
	positions []entity.DeFiPosition
	errors    []entity.PortfolioError
}

// chainAccumulator collects a worker's output as it goes, so a timed out scan still yields
// everything read before the deadline.
type chainAccumulator struct {
	mu          sync.Mutex
	result      chainResult
	unavailable bool
}

func (a *chainAccumulator) addBalance(b entity.TokenBalance) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.wallet = append(a.result.wallet, b)
}

func (a *chainAccumulator) addPosition(p entity.DeFiPosition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.positions = append(a.result.positions, p)
}

func (a *chainAccumulator) addError(e entity.PortfolioError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.result.errors = append(a.result.errors, e)
}

func (a *chainAccumulator) markUnavailable(e entity.PortfolioError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unavailable = true
	a.result.errors = append(a.result.errors, e)
}

// take copies the collected output; the worker may still be appending.
func (a *chainAccumulator) take() (chainResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return chainResult{
		wallet:    append([]entity.TokenBalance{}, a.result.wallet...),
		positions: append([]entity.DeFiPosition{}, a.result.positions...),
		errors:    append([]entity.PortfolioError(nil), a.result.errors...),
	}, a.unavailable
}

// scanChain runs the chain worker under the per-chain budget. When the budget runs out the
// accumulated partial result is used and the worker is cancelled.
func (s *PortfolioServiceImpl) scanChain(ctx context.Context, chain entity.ChainDescriptor, address string) chainResult {
	start := time.Now()
	acc := &chainAccumulator{}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.walkChain(workerCtx, chain, address, acc)
	}()

	timer := time.NewTimer(s.chainTimeout)
	defer timer.Stop()

	outcome := scanCompleted
	select {
	case <-done:
	case <-timer.C:
		outcome = scanTimeout
		s.logger.Warn("Chain scan exceeded its budget, using partial result",
			"network", chain.Identifier, "timeout", s.chainTimeout)
		acc.addError(entity.PortfolioError{
			Chain:   chain.Identifier,
			Kind:    entity.ChainTimeout,
			Message: fmt.Sprintf("scan did not finish within %s", s.chainTimeout),
		})
	case <-ctx.Done():
		outcome = scanCancelled
	}

	result, unavailable := acc.take()
	if unavailable {
		outcome = scanUnavailable
	}
	metrics.RecordChainScan(chain.Identifier, outcome, time.Since(start))
	s.logger.Debug("Chain scan finished", "network", chain.Identifier, "outcome", outcome,
		"wallet_balances", len(result.wallet), "defi_positions", len(result.positions), "duration", time.Since(start))
	return result
}

// walkChain reads the native balance, then the wallet tokens, then every protocol position
// of the chain's catalog, one read at a time.
func (s *PortfolioServiceImpl) walkChain(ctx context.Context, chain entity.ChainDescriptor, address string, acc *chainAccumulator) {
	reader, err := s.readers.GetReader(ctx, chain)
	if err != nil {
		s.logger.Error("Failed to get balance reader for network", "network", chain.Identifier, "error", err)
		acc.markUnavailable(entity.PortfolioError{
			Chain:   chain.Identifier,
			Kind:    entity.ChainUnavailable,
			Message: "failed to connect: " + err.Error(),
		})
		return
	}

	s.readNative(ctx, reader, chain, address, acc)

	catalog := s.catalog.Catalog().Chain(chain.Identifier)
	for _, token := range catalog.Tokens {
		if ctx.Err() != nil {
			return
		}
		s.readWalletToken(ctx, reader, chain, token, address, acc)
	}

	for _, protocol := range catalog.Protocols {
		for _, token := range protocol.Tokens {
			if ctx.Err() != nil {
				return
			}
			s.readPosition(ctx, reader, chain, protocol.ProtocolKey, token, address, acc)
		}
	}
}

func (s *PortfolioServiceImpl) readNative(ctx context.Context, reader port.BalanceReader, chain entity.ChainDescriptor, address string, acc *chainAccumulator) {
	result := reader.NativeBalance(ctx, address)
	if !s.accept(ctx, chain, chain.NativeSymbol, "", result, acc) {
		return
	}

	var price decimal.Decimal
	if chain.PriceOracleID != "" {
		price = s.oracle.LookupID(ctx, chain.PriceOracleID).PriceUSD
	} else {
		price = s.oracle.Price(ctx, chain.NativeSymbol)
	}

	amount := result.Amount()
	acc.addBalance(entity.TokenBalance{
		Chain:       chainName(chain),
		Symbol:      chain.NativeSymbol,
		DisplayName: chainName(chain) + " Native",
		Amount:      amount,
		ValueUSD:    amount.Mul(price),
		Kind:        entity.WalletBalanceKind,
	})
}

func (s *PortfolioServiceImpl) readWalletToken(ctx context.Context, reader port.BalanceReader, chain entity.ChainDescriptor, token entity.TokenInfo, address string, acc *chainAccumulator) {
	result := reader.TokenBalance(ctx, token.Address, address)
	if !s.accept(ctx, chain, token.Symbol, token.Address, result, acc) {
		return
	}

	symbol, name := result.Symbol, result.Name
	if symbol == "" {
		symbol = token.Symbol
	}
	if name == "" {
		name = symbol
	}

	amount := result.Amount()
	acc.addBalance(entity.TokenBalance{
		Chain:        chainName(chain),
		Symbol:       symbol,
		DisplayName:  name,
		TokenAddress: token.Address,
		Amount:       amount,
		ValueUSD:     amount.Mul(s.oracle.Price(ctx, symbol)),
		Kind:         entity.WalletBalanceKind,
	})
}

func (s *PortfolioServiceImpl) readPosition(ctx context.Context, reader port.BalanceReader, chain entity.ChainDescriptor, protocolKey string, token entity.PositionToken, address string, acc *chainAccumulator) {
	result := s.positionBalance(ctx, reader, chain, token, address)
	if !s.accept(ctx, chain, token.Symbol, token.Address, result, acc) {
		return
	}

	underlying, isDebt := s.classifier.Classify(token.Symbol, protocolKey)
	descriptor := s.classifier.Descriptor(protocolKey)

	amount := result.Amount()
	value := s.valuator.Value(ctx, underlying, amount, protocolKey)
	if isDebt {
		amount = amount.Neg()
		value = value.Neg()
	}

	acc.addPosition(entity.DeFiPosition{
		Chain:        chainName(chain),
		Protocol:     descriptor.DisplayName,
		ProtocolKey:  protocolKey,
		PositionType: s.classifier.PositionTypeFor(protocolKey, underlying, isDebt),
		Underlying:   underlying,
		DisplayToken: token.Symbol,
		Amount:       amount,
		ValueUSD:     value,
		IsDebt:       isDebt,
	})
}

// positionBalance prefers the token's custom view method when one is configured and falls
// back to balanceOf if that call fails.
func (s *PortfolioServiceImpl) positionBalance(ctx context.Context, reader port.BalanceReader, chain entity.ChainDescriptor, token entity.PositionToken, address string) entity.ReadResult {
	if token.BalanceContract != "" && token.BalanceMethod != "" {
		result := reader.ViewBalance(ctx, token.BalanceContract, token.BalanceMethod, address)
		if result.Status != entity.ReadFailed {
			return result
		}
		s.logger.Warn("View balance call failed, falling back to balanceOf",
			"network", chain.Identifier, "token", token.Symbol, "method", token.BalanceMethod, "error", result.Err)
	}
	return reader.TokenBalance(ctx, token.Address, address)
}

// accept records the read outcome and reports whether it produced a non-zero balance.
// Zero balances and failed reads both yield no entity; failures are kept in the chain's errors.
func (s *PortfolioServiceImpl) accept(ctx context.Context, chain entity.ChainDescriptor, symbol, tokenAddress string, result entity.ReadResult, acc *chainAccumulator) bool {
	metrics.RecordContractRead(chain.Identifier, result.Status.String())

	switch result.Status {
	case entity.ReadOK:
		s.logger.Debug("Balance found", "network", chain.Identifier, "token", symbol,
			"balance", utils.FormatBigInt(result.Raw, result.Decimals))
		return true
	case entity.ReadZero:
		s.logger.Debug("Skipping zero balance", "network", chain.Identifier, "token", symbol)
		return false
	}

	if ctx.Err() != nil {
		s.logger.Debug("Read abandoned", "network", chain.Identifier, "token", symbol, "error", result.Err)
		return false
	}
	s.logger.Warn("Balance read failed", "network", chain.Identifier, "token", symbol, "token_address", tokenAddress, "error", result.Err)
	message := "read failed"
	if result.Err != nil {
		message = result.Err.Error()
	}
	acc.addError(entity.PortfolioError{
		Chain:        chain.Identifier,
		Kind:         entity.TokenReadFailure,
		Token:        symbol,
		TokenAddress: tokenAddress,
		Message:      message,
	})
	return false
}

func sortBalances(balances []entity.TokenBalance) {
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].ValueUSD.GreaterThan(balances[j].ValueUSD)
	})
}

func sortPositions(positions []entity.DeFiPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].ValueUSD.GreaterThan(positions[j].ValueUSD)
	})
}

func walletTotal(balances []entity.TokenBalance) decimal.Decimal {
	values := make([]decimal.Decimal, len(balances))
	for i, b := range balances {
		values[i] = b.ValueUSD
	}
	return utils.SumDecimals(values...)
}

func defiTotal(positions []entity.DeFiPosition) decimal.Decimal {
	values := make([]decimal.Decimal, len(positions))
	for i, p := range positions {
		values[i] = p.ValueUSD
	}
	return utils.SumDecimals(values...)
}

// chainName is the chain label carried by balances and positions.
func chainName(chain entity.ChainDescriptor) string {
	if chain.DisplayName != "" {
		return chain.DisplayName
	}
	return chain.Identifier
}

var _ port.PortfolioService = (*PortfolioServiceImpl)(nil)
