package gates

import (
	"fmt"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/indicators"
)

// evaluateTechnical scores entry timing off the indicator snapshot: RSI
// band, MACD cross, moving-average alignment, volume confirmation and the
// Bollinger position, plus the strongest detected pattern. Missing
// indicators lower confidence, never fail the gate outright.
func (f *Framework) evaluateTechnical(in Input) domain.GateResult {
	if in.Snapshot == nil {
		return f.result(domain.GateTechnical, 0, 0,
			[]domain.Reason{reason("snapshot", "data unavailable", 0)}, nil)
	}

	snap := in.Snapshot
	score := 30.0
	confidence := 100.0
	var reasons []domain.Reason
	details := map[string]float64{"bar_count": float64(snap.BarCount)}

	if rsi, ok := snap.RSI.Value(); ok {
		details["rsi"] = rsi
		var pts float64
		switch {
		case rsi < indicators.RSIOversold:
			pts = 20
		case rsi < 50:
			pts = 14
		case rsi < 65:
			pts = 5
		case rsi > indicators.RSIOverbought:
			pts = -12
		}
		score += pts
		reasons = append(reasons, reason("rsi", fmt.Sprintf("RSI %.1f", rsi), pts))
	} else {
		confidence -= 25
		reasons = append(reasons, reason("rsi", "insufficient data", 0))
	}

	if hist, ok := snap.MACDHist.Value(); ok {
		details["macd_hist"] = hist
		var pts float64
		if snap.BullishCross {
			pts = 18
			reasons = append(reasons, reason("macd", "bullish crossover", pts))
		} else if hist > 0 {
			pts = 8
			reasons = append(reasons, reason("macd", "histogram positive", pts))
		} else if snap.BearishCross {
			pts = -12
			reasons = append(reasons, reason("macd", "bearish crossover", pts))
		} else {
			reasons = append(reasons, reason("macd", "histogram negative", 0))
		}
		score += pts
	} else {
		confidence -= 25
		reasons = append(reasons, reason("macd", "insufficient data", 0))
	}

	ma20, ok20 := snap.MA20.Value()
	ma50, ok50 := snap.MA50.Value()
	if ok20 && ok50 {
		var pts float64
		if ma20 > ma50 {
			pts = 12
			if ma200, ok := snap.MA200.Value(); ok && ma50 > ma200 {
				pts = 18
			}
			reasons = append(reasons, reason("ma_alignment", "moving averages aligned bullish", pts))
		} else {
			reasons = append(reasons, reason("ma_alignment", "ma20 below ma50", 0))
		}
		score += pts
	} else {
		confidence -= 20
		reasons = append(reasons, reason("ma_alignment", "insufficient data", 0))
	}

	if ratio, ok := snap.VolumeRatio.Value(); ok {
		details["volume_ratio"] = ratio
		var pts float64
		switch {
		case ratio > 1.5:
			pts = 12
		case ratio > 1.0:
			pts = 6
		}
		score += pts
		reasons = append(reasons, reason("volume_ratio", fmt.Sprintf("volume ratio %.2f", ratio), pts))
	} else {
		confidence -= 15
		reasons = append(reasons, reason("volume_ratio", "insufficient data", 0))
	}

	if lower, ok := snap.BollingerLower.Value(); ok && lower > 0 && snap.Close <= lower*1.02 {
		score += 8
		reasons = append(reasons, reason("bollinger", "price at lower band", 8))
	}

	// Patterns are ranked by the indicator layer; the strongest one is the
	// tie-break between competing signals. Only its score moves the gate.
	if len(in.Patterns) > 0 {
		top := in.Patterns[0]
		pts := top.Score * 1.5
		score += pts
		details["pattern_score"] = top.Score
		reasons = append(reasons, reason("pattern",
			fmt.Sprintf("%s (p=%.2f)", top.Name, top.Probability), pts))
	}

	return f.result(domain.GateTechnical, score, confidence, reasons, details)
}
