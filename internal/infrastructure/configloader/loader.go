package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CoinGeckoConfig holds CoinGecko API specific configurations.
type CoinGeckoConfig struct {
	APIKey               string `yaml:"apiKey"`
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	MaxTargetsPerRequest int    `yaml:"maxTargetsPerRequest"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
	RateLimitPerSecond   int    `yaml:"rateLimitPerSecond"`
	RateLimitBurst       int    `yaml:"rateLimitBurst"`
}

// LedgerNodeConfig holds configuration for one ledger.
type LedgerNodeConfig struct {
	Name            string   `yaml:"name"` // e.g., "ethereum", "bsc"
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"`
	ChainID         uint64   `yaml:"chainID"`
	OraclePlatform  string   `yaml:"oraclePlatform"` // e.g., "binance-smart-chain"
}

// PipelineConfig holds the valuation pipeline knobs.
type PipelineConfig struct {
	MaxRetries            int `yaml:"maxRetries"`
	MaxConcurrentTokens   int `yaml:"maxConcurrentTokens"`
	RPCCallTimeoutSeconds int `yaml:"rpcCallTimeoutSeconds"`
	ConnectTimeoutSeconds int `yaml:"connectTimeoutSeconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
	CoinGecko CoinGeckoConfig    `yaml:"coingecko"`
	Pipeline  PipelineConfig     `yaml:"pipeline"`
	Ledgers   []LedgerNodeConfig `yaml:"ledgers"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}
	return &cfg, nil
}
