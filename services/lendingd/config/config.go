// Package config loads the lendingd service configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"openchain/observability/logging"
)

// AssetSeed registers an asset at startup if it is not already present.
type AssetSeed struct {
	Mint                 string `yaml:"mint"`
	PriceFeed            string `yaml:"price_feed"`
	Decimals             uint8  `yaml:"decimals"`
	LTV                  uint64 `yaml:"ltv"`
	LiquidationThreshold uint64 `yaml:"liquidation_threshold"`
	CanBeCollateral      bool   `yaml:"can_be_collateral"`
	CanBeBorrowed        bool   `yaml:"can_be_borrowed"`
}

// OracleSeed primes the static oracle with an initial answer for a feed.
type OracleSeed struct {
	Feed  string `yaml:"feed"`
	Price int64  `yaml:"price"`
}

// Config is the top-level lendingd configuration.
type Config struct {
	Listen        string `yaml:"listen"`
	MetricsListen string `yaml:"metrics_listen"`
	// DataDir selects the LevelDB directory. Empty keeps state in memory,
	// which is only useful for local development.
	DataDir     string `yaml:"data_dir"`
	Environment string `yaml:"environment"`
	ChainID     uint64 `yaml:"chain_id"`

	PoolAddress string `yaml:"pool_address"`
	Admin       string `yaml:"admin"`
	Bridge      string `yaml:"bridge"`

	AdminTokens   []string `yaml:"admin_tokens"`
	RatePerSecond float64  `yaml:"rate_per_second"`
	Burst         int      `yaml:"burst"`

	LogRotation logging.RotationConfig `yaml:"log_rotation"`

	Assets       []AssetSeed  `yaml:"assets"`
	OraclePrices []OracleSeed `yaml:"oracle_prices"`
}

// Load reads, normalizes and validates the configuration file.
func Load(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.Listen == "" {
		c.Listen = ":8470"
	}
	if c.MetricsListen == "" {
		c.MetricsListen = ":9470"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 25
	}
	if c.Burst <= 0 {
		c.Burst = 50
	}
	cleaned := c.AdminTokens[:0]
	for _, token := range c.AdminTokens {
		token = strings.TrimSpace(token)
		if token != "" {
			cleaned = append(cleaned, token)
		}
	}
	c.AdminTokens = cleaned
}

// Validate rejects configurations that cannot boot a working service.
func (c Config) Validate() error {
	if c.PoolAddress == "" {
		return fmt.Errorf("config: pool_address is required")
	}
	if c.Admin == "" {
		return fmt.Errorf("config: admin is required")
	}
	if c.Listen == c.MetricsListen {
		return fmt.Errorf("config: listen and metrics_listen must differ")
	}
	for i, seed := range c.Assets {
		if seed.Mint == "" {
			return fmt.Errorf("config: assets[%d]: mint is required", i)
		}
		if seed.PriceFeed == "" {
			return fmt.Errorf("config: assets[%d]: price_feed is required", i)
		}
	}
	for i, seed := range c.OraclePrices {
		if seed.Feed == "" {
			return fmt.Errorf("config: oracle_prices[%d]: feed is required", i)
		}
	}
	return nil
}
