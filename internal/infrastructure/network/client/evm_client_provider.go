package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/singleflight"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/domain/entity"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// DialFunc opens an RPC connection to url.
type DialFunc func(ctx context.Context, url string) (*rpc.Client, error)

// EVMClientProvider implements the port.BalanceReaderProvider interface.
// Connections are opened lazily and cached per chain; a failed connection is retried on the next call.
type EVMClientProvider struct {
	clients map[string]*EVMClient
	mu      sync.RWMutex
	dials   singleflight.Group
	logger  port.Logger
	opts    ReaderOptions
	dial    DialFunc
}

// NewEVMClientProvider creates a new EVMClientProvider dialing with rpc.DialContext.
func NewEVMClientProvider(opts ReaderOptions, log port.Logger) *EVMClientProvider {
	return NewEVMClientProviderWithDialer(opts, log, rpc.DialContext)
}

// NewEVMClientProviderWithDialer creates a provider using a custom dialer.
func NewEVMClientProviderWithDialer(opts ReaderOptions, log port.Logger, dial DialFunc) *EVMClientProvider {
	if opts.ConnectionTimeout <= 0 {
		opts.ConnectionTimeout = defaultProviderConnectionTimeout
	}
	return &EVMClientProvider{
		clients: make(map[string]*EVMClient),
		logger:  log,
		opts:    opts,
		dial:    dial,
	}
}

// GetReader returns the cached reader for chain, connecting on first use. The primary RPC URL
// is tried first, then the fallbacks; an endpoint only counts as connected once it reports
// the expected chain id. Concurrent callers for the same chain share one connection attempt.
func (p *EVMClientProvider) GetReader(ctx context.Context, chain entity.ChainDescriptor) (port.BalanceReader, error) {
	if client, ok := p.cached(chain.Identifier); ok {
		return client, nil
	}

	// The shared dial outlives any single caller; each attempt is bounded by ConnectionTimeout.
	dialCtx := context.WithoutCancel(ctx)
	ch := p.dials.DoChan(chain.Identifier, func() (any, error) {
		if client, ok := p.cached(chain.Identifier); ok {
			return client, nil
		}
		client, err := p.connectAny(dialCtx, chain)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.clients[chain.Identifier] = client
		p.mu.Unlock()
		return client, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*EVMClient), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes every cached client.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, client := range p.clients {
		client.Close()
		delete(p.clients, id)
	}
}

func (p *EVMClientProvider) cached(identifier string) (*EVMClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[identifier]
	return client, ok
}

func (p *EVMClientProvider) connectAny(ctx context.Context, chain entity.ChainDescriptor) (*EVMClient, error) {
	urls := chain.RPCURLs()
	if len(urls) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured for %s", chain.Identifier)
	}

	var lastErr error
	for _, url := range urls {
		client, err := p.connect(ctx, chain, url)
		if err != nil {
			p.logger.Warn("RPC endpoint unavailable", "network", chain.Identifier, "rpc", url, "error", err)
			lastErr = err
			continue
		}
		p.logger.Info("Connected EVM client", "network", chain.Identifier, "rpc", url)
		return client, nil
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", chain.Identifier, lastErr)
}

func (p *EVMClientProvider) connect(ctx context.Context, chain entity.ChainDescriptor, url string) (*EVMClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, p.opts.ConnectionTimeout)
	defer cancel()

	rpcClient, err := p.dial(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", url, err)
	}

	client := NewEVMClient(chain, rpcClient, p.opts)
	chainID, err := client.ethClient.ChainID(dialCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to verify chain id for %s: %w", url, err)
	}
	if chain.ChainID != 0 && chainID.Uint64() != chain.ChainID {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch for %s: expected %d, got %d", url, chain.ChainID, chainID.Uint64())
	}
	return client, nil
}

var _ port.BalanceReaderProvider = (*EVMClientProvider)(nil)
