package httpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/infrastructure/configloader"
	"portfolio_checker/internal/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrPriceNotFound is returned when CoinGecko has no quote for the requested id.
var ErrPriceNotFound = errors.New("price not found")

const apiKeyHeader = "x-cg-demo-api-key"

// simplePriceResponse is the /simple/price payload: id -> currency -> price.
type simplePriceResponse map[string]map[string]float64

// CoinGeckoClient implements port.PriceSource over the CoinGecko simple price API.
type CoinGeckoClient struct {
	client           *fasthttp.Client
	breaker          *gobreaker.CircuitBreaker
	baseURL          string
	apiKey           string
	vsCurrency       string
	timeout          time.Duration
	maxIDsPerRequest int
	logger           *zap.Logger
}

// NewCoinGeckoClient creates a CoinGecko client. Requests are guarded by a circuit breaker that
// opens after cfg.BreakerFailureThreshold consecutive failures and stays open for cfg.BreakerOpenSeconds.
func NewCoinGeckoClient(cfg configloader.CoinGeckoConfig, timeout time.Duration, logger *zap.Logger) *CoinGeckoClient {
	logger = logger.Named("CoinGeckoClient")

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	openFor := time.Duration(cfg.BreakerOpenSeconds) * time.Second
	if openFor <= 0 {
		openFor = 60 * time.Second
	}

	st := gobreaker.Settings{Name: "coingecko"}
	st.Interval = openFor
	st.Timeout = openFor
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}
	st.OnStateChange = func(name string, from gobreaker.State, to gobreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
	}

	vsCurrency := strings.ToLower(cfg.VsCurrency)
	if vsCurrency == "" {
		vsCurrency = "usd"
	}

	return &CoinGeckoClient{
		client:           &fasthttp.Client{},
		breaker:          gobreaker.NewCircuitBreaker(st),
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:           cfg.APIKey,
		vsCurrency:       vsCurrency,
		timeout:          timeout,
		maxIDsPerRequest: cfg.MaxIDsPerRequest,
		logger:           logger,
	}
}

// FetchPrice returns the USD price of a single CoinGecko id.
func (c *CoinGeckoClient) FetchPrice(ctx context.Context, id string) (float64, error) {
	prices, err := c.FetchPrices(ctx, []string{id})
	if err != nil {
		return 0, err
	}
	price, ok := prices[strings.ToLower(id)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPriceNotFound, id)
	}
	return price, nil
}

// FetchPrices returns USD prices for ids, split into requests of at most maxIDsPerRequest ids.
// Ids CoinGecko does not know are absent from the result. A failed batch fails the call.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	ids = utils.UniqueLower(ids)
	prices := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	for _, batch := range utils.BatchStrings(ids, c.maxIDsPerRequest) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batchPrices, err := c.fetchBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for id, price := range batchPrices {
			prices[id] = price
		}
	}
	return prices, nil
}

func (c *CoinGeckoClient) fetchBatch(ctx context.Context, ids []string) (map[string]float64, error) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, ids)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Debug("Skipping CoinGecko request, circuit breaker open", zap.Strings("ids", ids))
		}
		return nil, err
	}
	return v.(map[string]float64), nil
}

func (c *CoinGeckoClient) doRequest(ctx context.Context, ids []string) (map[string]float64, error) {
	requestURL := c.baseURL + "/simple/price"

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
	args := req.URI().QueryArgs()
	args.Add("ids", strings.Join(ids, ","))
	args.Add("vs_currencies", c.vsCurrency)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting prices from CoinGecko", zap.Strings("ids", ids))

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to CoinGecko (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("CoinGecko API request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody),
		)
		return nil, fmt.Errorf("CoinGecko API request failed with status %d: %s", resp.StatusCode(), string(rawBody))
	}

	var payload simplePriceResponse
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CoinGecko response: %w", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, quotes := range payload {
		if price, ok := quotes[c.vsCurrency]; ok {
			prices[strings.ToLower(id)] = price
		}
	}
	return prices, nil
}

var _ port.PriceSource = (*CoinGeckoClient)(nil)
