package gates

import (
	"fmt"
	"math"

	"github.com/quantrun/quantrun/internal/domain"
)

// Config holds the gate thresholds, confidence weighting and risk limits.
// Thresholds are configuration, not code: callers may override any of the
// four values at construction time, and a bad override is fatal there.
type Config struct {
	Thresholds map[domain.GateName]float64 `yaml:"thresholds"`

	// ConfidenceWeights weight each gate's score inside the overall
	// confidence. Timing counts least because it is advisory.
	ConfidenceWeights map[domain.GateName]float64 `yaml:"confidence_weights"`

	// SectorBaselinePE maps a sector to its baseline P/E; tickers are
	// valued relative to it. DefaultBaselinePE covers unknown sectors.
	SectorBaselinePE  map[string]float64 `yaml:"sector_baseline_pe"`
	DefaultBaselinePE float64            `yaml:"default_baseline_pe"`

	Risk RiskConfig `yaml:"risk"`
}

// RiskConfig bounds the risk gate's portfolio context checks.
type RiskConfig struct {
	// MaxSectorConcentration is the highest tolerable fraction of the
	// portfolio already in the candidate's sector.
	MaxSectorConcentration float64 `yaml:"max_sector_concentration"`
	// MaxPositionPct is the largest single-position weight the proposed
	// entry may reach.
	MaxPositionPct float64 `yaml:"max_position_pct"`
	// VolatilityLookbackDays bounds the return window used for the
	// volatility and drawdown checks.
	VolatilityLookbackDays int `yaml:"volatility_lookback_days"`
}

// DefaultConfig returns the production gate configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: map[domain.GateName]float64{
			domain.GateFundamental: 70,
			domain.GateTechnical:   65,
			domain.GateRisk:        70,
			domain.GateTiming:      60,
		},
		ConfidenceWeights: map[domain.GateName]float64{
			domain.GateFundamental: 0.30,
			domain.GateTechnical:   0.30,
			domain.GateRisk:        0.25,
			domain.GateTiming:      0.15,
		},
		SectorBaselinePE: map[string]float64{
			"technology":     28,
			"financials":     14,
			"energy":         12,
			"healthcare":     22,
			"industrials":    18,
			"utilities":      16,
			"consumer":       20,
			"materials":      15,
			"real_estate":    30,
			"communications": 19,
		},
		DefaultBaselinePE: 20,
		Risk: RiskConfig{
			MaxSectorConcentration: 0.30,
			MaxPositionPct:         0.10,
			VolatilityLookbackDays: 60,
		},
	}
}

// WithThresholdOverrides copies the config with the given thresholds
// replacing defaults. Unknown gate names are rejected by Validate.
func (c Config) WithThresholdOverrides(overrides map[domain.GateName]float64) Config {
	merged := make(map[domain.GateName]float64, len(c.Thresholds))
	for k, v := range c.Thresholds {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	c.Thresholds = merged
	return c
}

// Validate checks the configuration eagerly; any failure is fatal at
// construction time, never at evaluation time.
func (c Config) Validate() error {
	if len(c.Thresholds) != len(domain.GateOrder) {
		return fmt.Errorf("%w: expected %d gate thresholds, got %d",
			domain.ErrInvalidConfig, len(domain.GateOrder), len(c.Thresholds))
	}
	for name, v := range c.Thresholds {
		if !knownGate(name) {
			return fmt.Errorf("%w: unknown gate %q in thresholds", domain.ErrInvalidConfig, name)
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: threshold for %s out of [0,100]: %.1f", domain.ErrInvalidConfig, name, v)
		}
	}

	var sum float64
	for name, w := range c.ConfidenceWeights {
		if !knownGate(name) {
			return fmt.Errorf("%w: unknown gate %q in confidence weights", domain.ErrInvalidConfig, name)
		}
		if w < 0 {
			return fmt.Errorf("%w: negative confidence weight for %s", domain.ErrInvalidConfig, name)
		}
		sum += w
	}
	if len(c.ConfidenceWeights) != len(domain.GateOrder) || math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: confidence weights must cover all four gates and sum to 1", domain.ErrInvalidConfig)
	}

	if c.DefaultBaselinePE <= 0 {
		return fmt.Errorf("%w: default_baseline_pe must be positive", domain.ErrInvalidConfig)
	}
	if c.Risk.MaxSectorConcentration <= 0 || c.Risk.MaxSectorConcentration > 1 {
		return fmt.Errorf("%w: max_sector_concentration must be in (0,1]", domain.ErrInvalidConfig)
	}
	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return fmt.Errorf("%w: max_position_pct must be in (0,1]", domain.ErrInvalidConfig)
	}
	if c.Risk.VolatilityLookbackDays < 2 {
		return fmt.Errorf("%w: volatility_lookback_days must be >= 2", domain.ErrInvalidConfig)
	}
	return nil
}

func (c Config) baselinePE(sector string) float64 {
	if pe, ok := c.SectorBaselinePE[sector]; ok {
		return pe
	}
	return c.DefaultBaselinePE
}

func knownGate(name domain.GateName) bool {
	for _, g := range domain.GateOrder {
		if g == name {
			return true
		}
	}
	return false
}
