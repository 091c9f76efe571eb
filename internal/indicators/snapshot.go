package indicators

import (
	"time"

	"github.com/quantrun/quantrun/internal/domain"
)

// Snapshot is the full derived indicator picture for one ticker at one date.
// It is recomputed per request from raw bars and never persisted as a source
// of truth. Any field that could not be computed from the available history
// is an invalid Opt (or a zero-value sub-struct with Valid=false).
type Snapshot struct {
	AsOf time.Time `json:"as_of_date"`

	RSI        domain.Opt `json:"rsi"`
	MACD       domain.Opt `json:"macd"`
	MACDSignal domain.Opt `json:"macd_signal"`
	MACDHist   domain.Opt `json:"macd_hist"`

	// BullishCross is true when the MACD line crossed above the signal line
	// on the latest bar; BearishCross mirrors it.
	BullishCross bool `json:"macd_bullish_cross"`
	BearishCross bool `json:"macd_bearish_cross"`

	BollingerUpper domain.Opt `json:"bollinger_upper"`
	BollingerMid   domain.Opt `json:"bollinger_mid"`
	BollingerLower domain.Opt `json:"bollinger_lower"`

	MA20  domain.Opt `json:"ma20"`
	MA50  domain.Opt `json:"ma50"`
	MA200 domain.Opt `json:"ma200"`

	// VolumeRatio is latest volume over the trailing average volume.
	VolumeRatio domain.Opt `json:"volume_ratio"`

	// VWAP is a rolling volume-weighted typical price used as the
	// benchmark for pattern distance checks.
	VWAP domain.Opt `json:"vwap"`

	// Return20d is the trailing momentum-period return as a fraction.
	Return20d domain.Opt `json:"return_20d"`

	Fib        FibLevels  `json:"fib_levels"`
	Squeeze    Squeeze    `json:"bb_squeeze"`
	Divergence Divergence `json:"rsi_divergence"`

	// PivotSupport1/2 are classic floor-trader supports from the prior bar.
	PivotSupport1 domain.Opt `json:"pivot_support_1"`
	PivotSupport2 domain.Opt `json:"pivot_support_2"`

	Close float64 `json:"close"`

	// BarCount records how much history backed this snapshot; consumers use
	// it to flag low-confidence readings.
	BarCount int `json:"bar_count"`
}

// FibLevels are retracement levels between the swing high and swing low
// found inside the fib lookback window. Level618 is treated downstream as
// the highest-priority support/resistance.
type FibLevels struct {
	Valid     bool    `json:"valid"`
	SwingHigh float64 `json:"swing_high"`
	SwingLow  float64 `json:"swing_low"`
	Level236  float64 `json:"level_236"`
	Level382  float64 `json:"level_382"`
	Level500  float64 `json:"level_500"`
	Level618  float64 `json:"level_618"`
	Level786  float64 `json:"level_786"`
}

// Squeeze reports abnormally narrow Bollinger bands, the usual precursor of
// a large move.
type Squeeze struct {
	Valid    bool `json:"valid"`
	Detected bool `json:"detected"`
	// Strength is the fraction of trailing days whose bands were wider than
	// today's, 0..1.
	Strength float64 `json:"strength"`
	// WidthPercentile is where today's band width sits inside the trailing
	// width distribution, 0..100 (low means narrow).
	WidthPercentile float64 `json:"width_percentile"`
}

// Divergence reports price/RSI disagreement over the trailing swing window.
type Divergence struct {
	Valid   bool `json:"valid"`
	Bullish bool `json:"bullish"`
	Bearish bool `json:"bearish"`
	// Strength combines the price move and the opposing RSI move, 0..1.
	Strength float64 `json:"strength"`
}

// NearestSupport returns the closest support level at or below price and its
// distance as a fraction of price. Candidates are the 50%/61.8% fib levels,
// pivot supports, and the lower Bollinger band. ok is false when no support
// level could be computed.
func (s *Snapshot) NearestSupport() (level float64, distPct float64, ok bool) {
	candidates := make([]float64, 0, 5)
	if s.Fib.Valid {
		candidates = append(candidates, s.Fib.Level500, s.Fib.Level618)
	}
	if v, valid := s.PivotSupport1.Value(); valid {
		candidates = append(candidates, v)
	}
	if v, valid := s.PivotSupport2.Value(); valid {
		candidates = append(candidates, v)
	}
	if v, valid := s.BollingerLower.Value(); valid {
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 || s.Close <= 0 {
		return 0, 0, false
	}
	best := candidates[0]
	bestDist := abs(s.Close-best) / s.Close
	for _, c := range candidates[1:] {
		d := abs(s.Close-c) / s.Close
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
