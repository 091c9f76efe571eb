// Package config loads the engine configuration file and validates every
// section eagerly. A bad configuration is fatal at startup; nothing is
// deferred to call time.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantrun/quantrun/internal/data"
	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/engine"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/retriever"
	"github.com/quantrun/quantrun/internal/scoring"
)

// Config is the full engine configuration. Absent file sections keep their
// defaults, so a minimal file only overrides what it cares about.
type Config struct {
	Engine     engine.Config          `yaml:"engine"`
	Indicators indicators.Config      `yaml:"indicators"`
	Weights    scoring.Weights        `yaml:"weights"`
	Gates      gates.Config           `yaml:"gates"`
	Retrieval  retriever.Config       `yaml:"retrieval"`
	Resilience data.ResilienceConfig  `yaml:"resilience"`
	Cache      data.CacheConfig       `yaml:"cache"`

	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Data     DataConfig     `yaml:"data"`
}

// ServerConfig is the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig points at the market data cache. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig points at the historical decision store. An empty DSN
// disables retrieval (cold-start behavior everywhere).
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// DataConfig points at the offline market data fixtures used by the CLI.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the full default configuration.
func Default() Config {
	return Config{
		Engine:     engine.DefaultConfig(),
		Indicators: indicators.DefaultConfig(),
		Weights:    scoring.DefaultWeights(),
		Gates:      gates.DefaultConfig(),
		Retrieval:  retriever.DefaultConfig(),
		Resilience: data.DefaultResilienceConfig(),
		Cache:      data.DefaultCacheConfig(),
		Server:     ServerConfig{Addr: ":8090"},
		Data:       DataConfig{Dir: "data/market"},
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path returns validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Gates.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	return nil
}
