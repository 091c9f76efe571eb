package gates

import (
	"fmt"
	"time"

	"github.com/quantrun/quantrun/internal/domain"
)

// evaluateTiming scores entry timing quality from sector momentum, the
// success rate of similar historical setups, and the seasonal window. It is
// advisory: failing here downgrades a BUY to WAIT, never to PASS. With an
// empty historical context (cold start) the gate runs on sector and
// seasonal signals alone.
func (f *Framework) evaluateTiming(in Input) domain.GateResult {
	score := 40.0
	confidence := 100.0
	var reasons []domain.Reason
	details := map[string]float64{}

	stats := in.History.SectorStats
	if stats.SampleCount > 0 {
		details["sector_buy_rate"] = stats.BuySignalRate
		var pts float64
		switch {
		case stats.BuySignalRate > 0.6:
			pts = 20
		case stats.BuySignalRate > 0.4:
			pts = 10
		case stats.BuySignalRate < 0.2:
			pts = -8
		}
		score += pts
		reasons = append(reasons, reason("sector_momentum",
			fmt.Sprintf("%.0f%% of recent %s decisions were BUY (n=%d)",
				stats.BuySignalRate*100, stats.Sector, stats.SampleCount), pts))

		if stats.AvgConfidence > 70 {
			score += 5
			reasons = append(reasons, reason("sector_confidence",
				fmt.Sprintf("average sector confidence %.0f", stats.AvgConfidence), 5))
		}
	} else {
		confidence -= 20
		reasons = append(reasons, reason("sector_momentum", "no recent sector history", 0))
	}

	if rate, ok := in.History.PatternSuccessRate(); ok {
		details["pattern_success_rate"] = rate
		var pts float64
		switch {
		case rate > 0.6:
			pts = 20
		case rate > 0.4:
			pts = 8
		default:
			pts = -10
		}
		score += pts
		reasons = append(reasons, reason("historical_precedent",
			fmt.Sprintf("similar setups succeeded %.0f%% of the time (%d matches)",
				rate*100, len(in.History.Matches)), pts))
	} else {
		// Cold start: no precedent is neutral, not negative.
		confidence -= 25
		reasons = append(reasons, reason("historical_precedent", "no comparable history", 0))
	}

	pts := seasonalPoints(in.AsOf)
	score += pts
	details["seasonal_points"] = pts
	reasons = append(reasons, reason("seasonality",
		fmt.Sprintf("month %s seasonal window", in.AsOf.Month()), pts))

	details["priority_composite"] = in.Priority.Composite
	if in.Priority.LowConfidence {
		confidence -= 5
		reasons = append(reasons, reason("priority_score",
			"priority score computed from incomplete inputs", 0))
	}

	if in.History.Degraded {
		confidence -= 15
		reasons = append(reasons, reason("retrieval", in.History.Reason, 0))
	}

	return f.result(domain.GateTiming, score, confidence, reasons, details)
}

// seasonalPoints applies the November-April favorable window; September is
// historically the weakest month.
func seasonalPoints(asOf time.Time) float64 {
	switch asOf.Month() {
	case time.November, time.December, time.January, time.February, time.March, time.April:
		return 10
	case time.September:
		return -5
	default:
		return 0
	}
}
