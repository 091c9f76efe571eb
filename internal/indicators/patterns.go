package indicators

import (
	"fmt"
	"math"
	"sort"
)

// PatternName identifies a detected chart setup.
type PatternName string

const (
	PatternStrongBuy          PatternName = "STRONG_BUY"
	PatternBuy                PatternName = "BUY"
	PatternWaitForPullback    PatternName = "WAIT_FOR_PULLBACK"
	PatternBreakoutImminent   PatternName = "BREAKOUT_IMMINENT"
	PatternDivergenceReversal PatternName = "DIVERGENCE_REVERSAL"
	PatternStrongSell         PatternName = "STRONG_SELL"
)

// Signal is one fired pattern. Score sits in [-10,+10]; STRONG_BUY scores
// 7..10, BUY 4..6, STRONG_SELL -7..-10. Multiple signals can fire on the
// same snapshot; they come back ranked by rule priority, and the gate layer
// owns tie-breaking between them.
type Signal struct {
	Name        PatternName `json:"name"`
	Probability float64     `json:"probability"`
	Score       float64     `json:"signal_score"`
	Evidence    []string    `json:"supporting_evidence"`
}

// patternInput is the normalized view of a snapshot the rule predicates
// read. Distances are percentages of the benchmark, signed for VWAP
// (negative = price below benchmark).
type patternInput struct {
	rsi          float64
	rsiOK        bool
	vwapDistPct  float64
	vwapOK       bool
	supportDist  float64
	supportOK    bool
	bullishCross bool
	bearishCross bool
	volumeRatio  float64
	volumeOK     bool
	maBullish    bool
	maBearish    bool
	squeeze      Squeeze
	divergence   Divergence
}

// patternRule is one row of the static classification table. Rules are
// evaluated independently so each row stays unit-testable on its own.
type patternRule struct {
	name        PatternName
	priority    int // lower evaluates as more significant
	probability float64
	evaluate    func(in patternInput) (matched bool, score float64, evidence []string)
}

// supportTolerancePct is how close (in %) price must sit to a support level
// for proximity-based rules to treat it as "at support".
const supportTolerancePct = 1.5

var patternRules = []patternRule{
	{
		name:        PatternStrongBuy,
		priority:    1,
		probability: 0.78,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.rsiOK && in.rsi < 35 &&
				in.vwapOK && in.vwapDistPct <= -1.5 &&
				in.supportOK && in.supportDist <= supportTolerancePct &&
				in.bullishCross &&
				in.volumeOK && in.volumeRatio >= 1.5 &&
				in.maBullish) {
				return false, 0, nil
			}
			score := 7.0
			ev := []string{
				fmt.Sprintf("rsi %.1f in oversold approach", in.rsi),
				fmt.Sprintf("price %.1f%% below vwap benchmark", -in.vwapDistPct),
				fmt.Sprintf("price within %.1f%% of support", in.supportDist),
				"macd bullish crossover",
				fmt.Sprintf("volume ratio %.2f", in.volumeRatio),
				"ma20 above ma50",
			}
			if in.rsi < 30 {
				score++
				ev = append(ev, "rsi fully oversold")
			}
			if in.volumeRatio >= 2.0 {
				score++
				ev = append(ev, "volume surge above 2x")
			}
			if in.vwapDistPct <= -3.0 {
				score++
				ev = append(ev, "deep discount to benchmark")
			}
			return true, math.Min(score, 10), ev
		},
	},
	{
		name:        PatternStrongSell,
		priority:    1,
		probability: 0.75,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.rsiOK && in.rsi > 70 &&
				in.bearishCross &&
				in.maBearish &&
				in.vwapOK && in.vwapDistPct >= 1.5) {
				return false, 0, nil
			}
			score := -7.0
			ev := []string{
				fmt.Sprintf("rsi %.1f overbought", in.rsi),
				"macd bearish crossover",
				"ma20 below ma50",
				fmt.Sprintf("price %.1f%% above vwap benchmark", in.vwapDistPct),
			}
			if in.rsi > 75 {
				score--
				ev = append(ev, "rsi extreme")
			}
			if in.vwapDistPct >= 3.0 {
				score--
				ev = append(ev, "extended above benchmark")
			}
			if in.volumeOK && in.volumeRatio >= 1.5 {
				score--
				ev = append(ev, "distribution volume")
			}
			return true, math.Max(score, -10), ev
		},
	},
	{
		name:        PatternBreakoutImminent,
		priority:    2,
		probability: 0.80,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.squeeze.Detected && in.squeeze.Strength > 0.6 &&
				in.volumeOK && in.volumeRatio < 0.8) {
				return false, 0, nil
			}
			ev := []string{
				fmt.Sprintf("bollinger squeeze strength %.2f", in.squeeze.Strength),
				fmt.Sprintf("band width at %.0fth percentile", in.squeeze.WidthPercentile),
				fmt.Sprintf("quiet volume ratio %.2f", in.volumeRatio),
			}
			return true, 5, ev
		},
	},
	{
		name:        PatternDivergenceReversal,
		priority:    2,
		probability: 0.70,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.divergence.Bullish && in.divergence.Strength > 0.6 &&
				in.supportOK && in.supportDist <= supportTolerancePct) {
				return false, 0, nil
			}
			score := 4 + 2*in.divergence.Strength
			ev := []string{
				fmt.Sprintf("bullish rsi divergence strength %.2f", in.divergence.Strength),
				fmt.Sprintf("price within %.1f%% of support", in.supportDist),
			}
			return true, score, ev
		},
	},
	{
		name:        PatternBuy,
		priority:    3,
		probability: 0.62,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.rsiOK && in.rsi < 45 &&
				in.bullishCross &&
				in.maBullish &&
				in.volumeOK && in.volumeRatio >= 1.0) {
				return false, 0, nil
			}
			score := 4.0
			ev := []string{
				fmt.Sprintf("rsi %.1f below neutral", in.rsi),
				"macd bullish crossover",
				"ma20 above ma50",
			}
			if in.rsi < 35 {
				score++
				ev = append(ev, "rsi near oversold")
			}
			if in.volumeRatio >= 1.5 {
				score++
				ev = append(ev, "volume confirmation")
			}
			return true, math.Min(score, 6), ev
		},
	},
	{
		name:        PatternWaitForPullback,
		priority:    4,
		probability: 0.55,
		evaluate: func(in patternInput) (bool, float64, []string) {
			if !(in.rsiOK && in.rsi > 60 &&
				in.vwapOK && in.vwapDistPct >= 2.0 &&
				in.maBullish && !in.bearishCross) {
				return false, 0, nil
			}
			ev := []string{
				fmt.Sprintf("rsi %.1f elevated", in.rsi),
				fmt.Sprintf("price %.1f%% above vwap benchmark", in.vwapDistPct),
				"uptrend intact",
			}
			return true, 2, ev
		},
	},
}

// DetectPatterns runs the classification table against a snapshot and
// returns every matching signal, most significant rule first. It never
// picks a winner; that belongs to the gate layer.
func DetectPatterns(snap *Snapshot) []Signal {
	in := newPatternInput(snap)

	var out []Signal
	for _, rule := range patternRules {
		matched, score, evidence := rule.evaluate(in)
		if !matched {
			continue
		}
		out = append(out, Signal{
			Name:        rule.name,
			Probability: rule.probability,
			Score:       score,
			Evidence:    evidence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := rulePriority(out[i].Name), rulePriority(out[j].Name)
		if pi != pj {
			return pi < pj
		}
		return math.Abs(out[i].Score) > math.Abs(out[j].Score)
	})
	return out
}

func rulePriority(name PatternName) int {
	for _, r := range patternRules {
		if r.name == name {
			return r.priority
		}
	}
	return math.MaxInt32
}

func newPatternInput(snap *Snapshot) patternInput {
	in := patternInput{
		squeeze:      snap.Squeeze,
		divergence:   snap.Divergence,
		bullishCross: snap.BullishCross,
		bearishCross: snap.BearishCross,
	}
	in.rsi, in.rsiOK = snap.RSI.Value()
	in.volumeRatio, in.volumeOK = snap.VolumeRatio.Value()

	if vwap, ok := snap.VWAP.Value(); ok && vwap > 0 {
		in.vwapDistPct = (snap.Close - vwap) / vwap * 100.0
		in.vwapOK = true
	}
	if _, dist, ok := snap.NearestSupport(); ok {
		in.supportDist = dist * 100.0
		in.supportOK = true
	}
	ma20, ok20 := snap.MA20.Value()
	ma50, ok50 := snap.MA50.Value()
	if ok20 && ok50 {
		in.maBullish = ma20 > ma50
		in.maBearish = ma20 < ma50
	}
	return in
}
