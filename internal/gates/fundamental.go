package gates

import (
	"fmt"

	"github.com/quantrun/quantrun/internal/domain"
)

// insufficientFundamentalsScore is deliberately low but not zero: a missing
// data feed is weaker evidence than a confirmed bad balance sheet.
const insufficientFundamentalsScore = 35.0

// evaluateFundamental scores intrinsic value against the sector baseline:
// relative P/E, PEG, leverage and revenue growth.
func (f *Framework) evaluateFundamental(in Input) domain.GateResult {
	if in.Fundamentals == nil {
		return f.result(domain.GateFundamental, insufficientFundamentalsScore, 25,
			[]domain.Reason{reason("fundamentals", "insufficient data: no fundamentals available", 0)},
			nil)
	}

	fund := in.Fundamentals
	score := 30.0
	confidence := 100.0
	var reasons []domain.Reason
	details := map[string]float64{}

	baseline := f.cfg.baselinePE(fund.Sector)
	details["sector_baseline_pe"] = baseline

	if pe, ok := fund.PERatio.Value(); ok && pe > 0 {
		details["pe_ratio"] = pe
		rel := pe / baseline
		var pts float64
		switch {
		case rel <= 0.75:
			pts = 25
		case rel <= 1.0:
			pts = 18
		case rel <= 1.25:
			pts = 8
		default:
			pts = -5
		}
		score += pts
		reasons = append(reasons, reason("pe_ratio",
			fmt.Sprintf("P/E %.1f vs sector baseline %.1f", pe, baseline), pts))
	} else {
		confidence -= 25
		reasons = append(reasons, reason("pe_ratio", "insufficient data", 0))
	}

	if peg, ok := fund.PEGRatio.Value(); ok && peg > 0 {
		details["peg_ratio"] = peg
		var pts float64
		switch {
		case peg < 1.0:
			pts = 20
		case peg < 2.0:
			pts = 10
		default:
			pts = 0
		}
		score += pts
		reasons = append(reasons, reason("peg_ratio", fmt.Sprintf("PEG %.2f", peg), pts))
	} else {
		confidence -= 20
		reasons = append(reasons, reason("peg_ratio", "insufficient data", 0))
	}

	if de, ok := fund.DebtToEquity.Value(); ok && de >= 0 {
		details["debt_to_equity"] = de
		var pts float64
		switch {
		case de < 0.5:
			pts = 15
		case de < 1.0:
			pts = 10
		case de < 2.0:
			pts = 3
		default:
			pts = -8
		}
		score += pts
		reasons = append(reasons, reason("debt_to_equity", fmt.Sprintf("D/E %.2f", de), pts))
	} else {
		confidence -= 20
		reasons = append(reasons, reason("debt_to_equity", "insufficient data", 0))
	}

	if growth, ok := fund.RevenueGrowth.Value(); ok {
		details["revenue_growth"] = growth
		var pts float64
		switch {
		case growth > 0.15:
			pts = 15
		case growth > 0.05:
			pts = 10
		case growth > 0:
			pts = 5
		default:
			pts = -10
		}
		score += pts
		reasons = append(reasons, reason("revenue_growth",
			fmt.Sprintf("revenue growth %.1f%% YoY", growth*100), pts))
	} else {
		confidence -= 20
		reasons = append(reasons, reason("revenue_growth", "insufficient data", 0))
	}

	return f.result(domain.GateFundamental, score, confidence, reasons, details)
}
