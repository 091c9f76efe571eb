package gates

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/retriever"
)

func newTestFramework(t *testing.T) *Framework {
	t.Helper()
	f, err := New(DefaultConfig())
	require.NoError(t, err)
	return f
}

func gateSet(scores [4]float64, thresholds map[domain.GateName]float64) []domain.GateResult {
	out := make([]domain.GateResult, 0, 4)
	for i, name := range domain.GateOrder {
		out = append(out, domain.GateResult{
			Gate:      name,
			Score:     scores[i],
			Threshold: thresholds[name],
			Passed:    scores[i] >= thresholds[name],
		})
	}
	return out
}

func TestDecideMatrix(t *testing.T) {
	thresholds := DefaultConfig().Thresholds
	cases := []struct {
		name   string
		scores [4]float64
		want   domain.Action
	}{
		{"all gates pass", [4]float64{80, 70, 75, 65}, domain.ActionBuy},
		{"timing fails only", [4]float64{80, 70, 75, 45}, domain.ActionWait},
		{"fundamental fails", [4]float64{60, 70, 75, 65}, domain.ActionPass},
		{"technical fails", [4]float64{80, 50, 75, 65}, domain.ActionPass},
		{"risk fails", [4]float64{80, 70, 60, 65}, domain.ActionPass},
		{"risk and timing fail", [4]float64{80, 70, 60, 40}, domain.ActionPass},
		{"everything fails", [4]float64{10, 10, 10, 10}, domain.ActionPass},
		{"exactly at thresholds", [4]float64{70, 65, 70, 60}, domain.ActionBuy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(gateSet(tc.scores, thresholds))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGatedWaitScenario(t *testing.T) {
	f := newTestFramework(t)
	results := gateSet([4]float64{78, 72, 75, 45}, f.cfg.Thresholds)

	assert.Equal(t, domain.ActionWait, Decide(results))

	// 0.30*78 + 0.30*72 + 0.25*75 + 0.15*45
	assert.InDelta(t, 70.5, f.OverallConfidence(results), 1e-9)
}

func TestThresholdOverrides(t *testing.T) {
	cfg := DefaultConfig().WithThresholdOverrides(map[domain.GateName]float64{
		domain.GateTiming: 40,
	})
	f, err := New(cfg)
	require.NoError(t, err)

	// Timing 45 clears the lowered 40 threshold: BUY instead of WAIT.
	results := gateSet([4]float64{80, 70, 75, 45}, f.cfg.Thresholds)
	assert.Equal(t, domain.ActionBuy, Decide(results))
}

func TestConfigValidation(t *testing.T) {
	t.Run("threshold out of range", func(t *testing.T) {
		cfg := DefaultConfig().WithThresholdOverrides(map[domain.GateName]float64{
			domain.GateRisk: 140,
		})
		_, err := New(cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("unknown gate name", func(t *testing.T) {
		cfg := DefaultConfig().WithThresholdOverrides(map[domain.GateName]float64{
			domain.GateName("liquidity"): 50,
		})
		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("bad confidence weights", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConfidenceWeights = map[domain.GateName]float64{
			domain.GateFundamental: 0.5,
			domain.GateTechnical:   0.5,
			domain.GateRisk:        0.5,
			domain.GateTiming:      0.5,
		}
		_, err := New(cfg)
		require.Error(t, err)
	})
}

// healthyInput is a setup that should clear all four gates: cheap relative
// to sector, oversold entry with volume, low volatility, warm history.
func healthyInput() Input {
	bars := make([]domain.PriceBar, 80)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price *= 1.0005 // ~13% annualized drift, tiny daily moves
		bars[i] = domain.PriceBar{Date: day, Open: price, High: price * 1.003, Low: price * 0.997, Close: price, Volume: 1e6}
		day = day.AddDate(0, 0, 1)
	}
	snap := &indicators.Snapshot{
		Close:          price,
		BarCount:       len(bars),
		RSI:            domain.Some(28),
		MACDHist:       domain.Some(0.4),
		BullishCross:   true,
		MA20:           domain.Some(price * 0.99),
		MA50:           domain.Some(price * 0.97),
		MA200:          domain.Some(price * 0.92),
		VolumeRatio:    domain.Some(1.8),
		BollingerLower: domain.Some(price),
	}
	outcome := domain.Some(0.08)
	match := retriever.Match{
		Similarity: 0.9,
		Record:     retriever.HistoricalRecord{Ticker: "PEER", Decision: "BUY", Confidence: 80, Outcome: outcome},
	}
	return Input{
		Ticker:   "TEST",
		AsOf:     time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
		Bars:     bars,
		Snapshot: snap,
		Patterns: []indicators.Signal{{Name: indicators.PatternStrongBuy, Probability: 0.78, Score: 8}},
		Fundamentals: &domain.FundamentalsSnapshot{
			Ticker:        "TEST",
			Sector:        "financials",
			PERatio:       domain.Some(9),
			PEGRatio:      domain.Some(0.8),
			DebtToEquity:  domain.Some(0.3),
			RevenueGrowth: domain.Some(0.20),
		},
		Position: PositionContext{SectorExposure: 0.10, ProposedPositionPct: 0.05},
		History: retriever.HistoricalContext{
			Matches: []retriever.Match{match, match, match},
			SectorStats: retriever.SectorStats{
				Sector: "financials", WindowDays: 30, SampleCount: 12,
				BuySignalRate: 0.7, AvgConfidence: 75,
			},
		},
	}
}

func TestEvaluateHealthyInputBuys(t *testing.T) {
	f := newTestFramework(t)
	decision := f.Evaluate(healthyInput())

	require.Len(t, decision.Gates, 4)
	for _, g := range decision.Gates {
		assert.True(t, g.Passed, "gate %s should pass: score %.1f < %.1f (%v)",
			g.Gate, g.Score, g.Threshold, g.Reasoning)
	}
	assert.Equal(t, domain.ActionBuy, decision.Final)
	assert.Greater(t, decision.OverallConfidence, 65.0)

	// Gates come back in evaluation order.
	for i, name := range domain.GateOrder {
		assert.Equal(t, name, decision.Gates[i].Gate)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	f := newTestFramework(t)
	in := healthyInput()
	first := f.Evaluate(in)
	second := f.Evaluate(in)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestEvaluateScoresBounded(t *testing.T) {
	f := newTestFramework(t)
	inputs := []Input{
		healthyInput(),
		{Ticker: "EMPTY", AsOf: time.Now(), Snapshot: &indicators.Snapshot{}},
		{Ticker: "NILS", AsOf: time.Now()},
	}
	for _, in := range inputs {
		decision := f.Evaluate(in)
		require.Len(t, decision.Gates, 4)
		for _, g := range decision.Gates {
			assert.GreaterOrEqual(t, g.Score, 0.0)
			assert.LessOrEqual(t, g.Score, 100.0)
			assert.GreaterOrEqual(t, g.Confidence, 0.0)
			assert.LessOrEqual(t, g.Confidence, 100.0)
		}
	}
}
