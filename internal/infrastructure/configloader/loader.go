package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string   `yaml:"port"`
	ReadTimeoutSeconds  int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int      `yaml:"writeTimeoutSeconds"`
	AllowedOrigins      []string `yaml:"allowedOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// NetworkConfig activates a predefined network and optionally overrides its RPC endpoints.
type NetworkConfig struct {
	Identifier      string   `yaml:"identifier"` // e.g., "ethereum"
	DisplayName     string   `yaml:"displayName"`
	PrimaryRPCURL   string   `yaml:"primaryRpcUrl"`
	FallbackRPCURLs []string `yaml:"fallbackRpcUrls"`
}

// PortfolioConfig holds the fan-out and RPC tuning knobs.
type PortfolioConfig struct {
	ChainTimeoutSeconds      int `yaml:"chainTimeoutSeconds"`
	MaxConcurrentChains      int `yaml:"maxConcurrentChains"`
	RPCCallTimeoutSeconds    int `yaml:"rpcCallTimeoutSeconds"`
	ConnectionTimeoutSeconds int `yaml:"connectionTimeoutSeconds"`
	RPCMinIntervalMillis     int `yaml:"rpcMinIntervalMillis"`
}

// PriceOracleConfig holds configuration for the price oracle.
type PriceOracleConfig struct {
	CacheTTLMinutes      int                `yaml:"cacheTTLMinutes"`
	RequestTimeoutMillis int64              `yaml:"requestTimeoutMillis"`
	PreloadOnStart       bool               `yaml:"preloadOnStart"`
	BasketEstimates      map[string]float64 `yaml:"basketEstimates"` // per-unit USD estimate keyed by token symbol
	FallbackPrices       map[string]float64 `yaml:"fallbackPrices"`  // keyed by asset id
}

// CoinGeckoConfig holds CoinGecko API specific configurations.
type CoinGeckoConfig struct {
	APIKey                  string `yaml:"apiKey"`
	BaseURL                 string `yaml:"baseURL"`
	VsCurrency              string `yaml:"vsCurrency"`
	MaxIDsPerRequest        int    `yaml:"maxIdsPerRequest"`
	BreakerFailureThreshold uint32 `yaml:"breakerFailureThreshold"`
	BreakerOpenSeconds      int    `yaml:"breakerOpenSeconds"`
}

// CatalogConfig points at an optional catalog file replacing the embedded one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Networks    []NetworkConfig   `yaml:"networks"`
	Portfolio   PortfolioConfig   `yaml:"portfolio"`
	PriceOracle PriceOracleConfig `yaml:"priceOracle"`
	CoinGecko   CoinGeckoConfig   `yaml:"coinGecko"`
	Catalog     CatalogConfig     `yaml:"catalog"`
}

// rpcEnvOverrides maps network identifiers to the environment variables overriding their primary RPC.
var rpcEnvOverrides = map[string]string{
	"ethereum":  "ETH_RPC_URL",
	"arbitrum":  "ARB_RPC_URL",
	"polygon":   "POLYGON_RPC_URL",
	"avalanche": "AVAX_RPC_URL",
	"bsc":       "BSC_RPC_URL",
}

// DefaultNetworks is the network list used when the configuration names none.
var DefaultNetworks = []string{"ethereum", "arbitrum", "polygon", "avalanche", "bsc"}

// DefaultFallbackPrices are used when the live price source cannot answer.
var DefaultFallbackPrices = map[string]float64{
	"ethereum":      2000,
	"matic-network": 0.8,
	"avalanche-2":   30,
	"binancecoin":   300,
	"usd-coin":      1,
	"tether":        1,
	"dai":           1,
	"tbtc":          102000,
	"verse-bitcoin": 0.00005836,
}

// Load reads the YAML configuration file from the given path, applies defaults and
// environment overrides. A missing file is not an error: defaults are used instead.
// Variables from a .env file in the working directory are loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}

	var cfg Config
	if path != "" {
		logrus.Infof("Loading configuration from path: %s", path)
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logrus.Warnf("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
			}
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "5001"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		// A full check may take one chain budget plus price lookups.
		cfg.Server.WriteTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if len(cfg.Networks) == 0 {
		for _, id := range DefaultNetworks {
			cfg.Networks = append(cfg.Networks, NetworkConfig{Identifier: id})
		}
		logrus.Infof("No networks configured, defaulting to %s", strings.Join(DefaultNetworks, ", "))
	}

	if cfg.Portfolio.ChainTimeoutSeconds <= 0 {
		cfg.Portfolio.ChainTimeoutSeconds = 15
	}
	if cfg.Portfolio.MaxConcurrentChains <= 0 {
		cfg.Portfolio.MaxConcurrentChains = len(cfg.Networks)
		logrus.Infof("MaxConcurrentChains not set, defaulting to %d", cfg.Portfolio.MaxConcurrentChains)
	}
	if cfg.Portfolio.RPCCallTimeoutSeconds <= 0 {
		cfg.Portfolio.RPCCallTimeoutSeconds = 10
	}
	if cfg.Portfolio.ConnectionTimeoutSeconds <= 0 {
		cfg.Portfolio.ConnectionTimeoutSeconds = 10
	}
	if cfg.Portfolio.RPCMinIntervalMillis < 0 {
		cfg.Portfolio.RPCMinIntervalMillis = 0
	} else if cfg.Portfolio.RPCMinIntervalMillis == 0 {
		cfg.Portfolio.RPCMinIntervalMillis = 50
	}

	if cfg.PriceOracle.CacheTTLMinutes <= 0 {
		cfg.PriceOracle.CacheTTLMinutes = 120
		logrus.Infof("PriceOracle.CacheTTLMinutes not set, defaulting to %d minutes", cfg.PriceOracle.CacheTTLMinutes)
	}
	if cfg.PriceOracle.RequestTimeoutMillis <= 0 {
		cfg.PriceOracle.RequestTimeoutMillis = 5000
	}
	if cfg.PriceOracle.BasketEstimates == nil {
		cfg.PriceOracle.BasketEstimates = map[string]float64{"GLP": 1.0}
	}
	if cfg.PriceOracle.FallbackPrices == nil {
		cfg.PriceOracle.FallbackPrices = make(map[string]float64, len(DefaultFallbackPrices))
	}
	for id, price := range DefaultFallbackPrices {
		if _, ok := cfg.PriceOracle.FallbackPrices[id]; !ok {
			cfg.PriceOracle.FallbackPrices[id] = price
		}
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3" // Default public API
	}
	if cfg.CoinGecko.VsCurrency == "" {
		cfg.CoinGecko.VsCurrency = "usd"
	}
	if cfg.CoinGecko.MaxIDsPerRequest <= 0 {
		cfg.CoinGecko.MaxIDsPerRequest = 50
	}
	if cfg.CoinGecko.BreakerFailureThreshold == 0 {
		cfg.CoinGecko.BreakerFailureThreshold = 3
	}
	if cfg.CoinGecko.BreakerOpenSeconds <= 0 {
		cfg.CoinGecko.BreakerOpenSeconds = 60
	}
}

func applyEnvOverrides(cfg *Config) {
	for i, network := range cfg.Networks {
		envVar, ok := rpcEnvOverrides[strings.ToLower(network.Identifier)]
		if !ok {
			continue
		}
		if url := strings.TrimSpace(os.Getenv(envVar)); url != "" {
			cfg.Networks[i].PrimaryRPCURL = url
			logrus.Infof("Network '%s' primary RPC overridden by %s", network.Identifier, envVar)
		}
	}
	if key := strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")); key != "" {
		cfg.CoinGecko.APIKey = key
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	for i, network := range c.Networks {
		if strings.TrimSpace(network.Identifier) == "" {
			return fmt.Errorf("networks[%d]: identifier is required", i)
		}
	}
	for symbol, estimate := range c.PriceOracle.BasketEstimates {
		if estimate < 0 {
			return fmt.Errorf("priceOracle.basketEstimates[%s]: estimate must not be negative", symbol)
		}
	}
	for id, price := range c.PriceOracle.FallbackPrices {
		if price <= 0 {
			return fmt.Errorf("priceOracle.fallbackPrices[%s]: price must be positive", id)
		}
	}
	return nil
}

// ChainTimeout returns the soft per-chain budget.
func (c *Config) ChainTimeout() time.Duration {
	return time.Duration(c.Portfolio.ChainTimeoutSeconds) * time.Second
}

// RPCCallTimeout returns the timeout applied to each JSON-RPC call.
func (c *Config) RPCCallTimeout() time.Duration {
	return time.Duration(c.Portfolio.RPCCallTimeoutSeconds) * time.Second
}

// ConnectionTimeout returns the dial timeout per RPC endpoint.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.Portfolio.ConnectionTimeoutSeconds) * time.Second
}

// RPCMinInterval returns the minimal spacing between contract reads on one chain.
func (c *Config) RPCMinInterval() time.Duration {
	return time.Duration(c.Portfolio.RPCMinIntervalMillis) * time.Millisecond
}

// PriceCacheTTL returns how long a cached price stays fresh.
func (c *Config) PriceCacheTTL() time.Duration {
	return time.Duration(c.PriceOracle.CacheTTLMinutes) * time.Minute
}

// PriceRequestTimeout returns the bound on one live price fetch.
func (c *Config) PriceRequestTimeout() time.Duration {
	return time.Duration(c.PriceOracle.RequestTimeoutMillis) * time.Millisecond
}
