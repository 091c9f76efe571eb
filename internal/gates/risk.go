package gates

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/quantrun/quantrun/internal/domain"
)

// tradingDaysPerYear annualizes daily return volatility.
const tradingDaysPerYear = 252

// evaluateRisk scores the downside profile: annualized volatility, maximum
// drawdown over the lookback window, and portfolio context (position size,
// sector concentration).
func (f *Framework) evaluateRisk(in Input) domain.GateResult {
	score := 30.0
	confidence := 100.0
	var reasons []domain.Reason
	details := map[string]float64{}

	lookback := f.cfg.Risk.VolatilityLookbackDays
	closes := domain.Closes(in.Bars)
	if len(closes) > lookback+1 {
		closes = closes[len(closes)-lookback-1:]
	}

	if vol, ok := annualizedVolatility(closes); ok {
		details["annualized_volatility"] = vol
		var pts float64
		switch {
		case vol < 0.20:
			pts = 25
		case vol < 0.35:
			pts = 15
		case vol < 0.50:
			pts = 5
		default:
			pts = -12
		}
		score += pts
		reasons = append(reasons, reason("volatility",
			fmt.Sprintf("annualized volatility %.0f%%", vol*100), pts))
	} else {
		confidence -= 35
		reasons = append(reasons, reason("volatility", "insufficient data", 0))
	}

	if dd, ok := maxDrawdown(closes); ok {
		details["max_drawdown"] = dd
		var pts float64
		switch {
		case dd < 0.10:
			pts = 25
		case dd < 0.20:
			pts = 15
		case dd < 0.35:
			pts = 5
		default:
			pts = -10
		}
		score += pts
		reasons = append(reasons, reason("drawdown",
			fmt.Sprintf("max drawdown %.0f%% over lookback", dd*100), pts))
	} else {
		confidence -= 35
		reasons = append(reasons, reason("drawdown", "insufficient data", 0))
	}

	details["sector_exposure"] = in.Position.SectorExposure
	if in.Position.SectorExposure < f.cfg.Risk.MaxSectorConcentration {
		score += 12
		reasons = append(reasons, reason("sector_concentration",
			fmt.Sprintf("sector exposure %.0f%% within %.0f%% limit",
				in.Position.SectorExposure*100, f.cfg.Risk.MaxSectorConcentration*100), 12))
	} else {
		score -= 15
		reasons = append(reasons, reason("sector_concentration",
			fmt.Sprintf("sector exposure %.0f%% at or above %.0f%% limit",
				in.Position.SectorExposure*100, f.cfg.Risk.MaxSectorConcentration*100), -15))
	}

	details["proposed_position_pct"] = in.Position.ProposedPositionPct
	if in.Position.ProposedPositionPct <= f.cfg.Risk.MaxPositionPct {
		score += 10
		reasons = append(reasons, reason("position_size", "proposed size within limit", 10))
	} else {
		score -= 15
		reasons = append(reasons, reason("position_size",
			fmt.Sprintf("proposed size %.1f%% exceeds %.1f%% limit",
				in.Position.ProposedPositionPct*100, f.cfg.Risk.MaxPositionPct*100), -15))
	}

	return f.result(domain.GateRisk, score, confidence, reasons, details)
}

// annualizedVolatility is the stdev of daily log returns scaled by sqrt of
// the trading year. Needs at least a week of data to say anything.
func annualizedVolatility(closes []float64) (float64, bool) {
	if len(closes) < 6 {
		return 0, false
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, false
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear), true
}

// maxDrawdown is the deepest peak-to-trough decline as a positive fraction.
func maxDrawdown(closes []float64) (float64, bool) {
	if len(closes) < 2 {
		return 0, false
	}
	peak := closes[0]
	worst := 0.0
	for _, c := range closes[1:] {
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			if dd := (peak - c) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst, true
}
