package indicators

import (
	"fmt"

	"github.com/quantrun/quantrun/internal/domain"
)

// Config holds the indicator periods and detection thresholds. All values
// are validated eagerly; a bad config is fatal at construction, never at
// compute time.
type Config struct {
	RSIPeriod int `yaml:"rsi_period"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev"`

	// Squeeze detection: band width in the bottom SqueezePercentile of the
	// trailing SqueezeWindow-day width distribution.
	SqueezeWindow     int     `yaml:"squeeze_window"`
	SqueezePercentile float64 `yaml:"squeeze_percentile"`

	FibLookbackDays int `yaml:"fib_lookback_days"`

	VolumeAvgPeriod int `yaml:"volume_avg_period"`
	VWAPPeriod      int `yaml:"vwap_period"`

	DivergenceWindow    int `yaml:"divergence_window"`
	DivergenceMinSwings int `yaml:"divergence_min_swings"`

	MomentumPeriod int `yaml:"momentum_period"`
}

// DefaultConfig returns the production indicator configuration.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:           14,
		MACDFast:            12,
		MACDSlow:            26,
		MACDSignal:          9,
		BollingerPeriod:     20,
		BollingerStdDev:     2.0,
		SqueezeWindow:       20,
		SqueezePercentile:   15.0,
		FibLookbackDays:     20,
		VolumeAvgPeriod:     20,
		VWAPPeriod:          20,
		DivergenceWindow:    30,
		DivergenceMinSwings: 3,
		MomentumPeriod:      20,
	}
}

// Validate checks the configuration for values that would make indicator
// math meaningless.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		what string
	}{
		{c.RSIPeriod >= 2, "rsi_period must be >= 2"},
		{c.MACDFast >= 2, "macd_fast must be >= 2"},
		{c.MACDSlow > c.MACDFast, "macd_slow must be greater than macd_fast"},
		{c.MACDSignal >= 1, "macd_signal must be >= 1"},
		{c.BollingerPeriod >= 2, "bollinger_period must be >= 2"},
		{c.BollingerStdDev > 0, "bollinger_std_dev must be positive"},
		{c.SqueezeWindow >= 2, "squeeze_window must be >= 2"},
		{c.SqueezePercentile > 0 && c.SqueezePercentile < 100, "squeeze_percentile must be in (0,100)"},
		{c.FibLookbackDays >= 2, "fib_lookback_days must be >= 2"},
		{c.VolumeAvgPeriod >= 1, "volume_avg_period must be >= 1"},
		{c.VWAPPeriod >= 1, "vwap_period must be >= 1"},
		{c.DivergenceWindow >= 5, "divergence_window must be >= 5"},
		{c.DivergenceMinSwings >= 2, "divergence_min_swings must be >= 2"},
		{c.MomentumPeriod >= 1, "momentum_period must be >= 1"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, chk.what)
		}
	}
	return nil
}
