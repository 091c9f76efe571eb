// Package gates implements the four-stage decision framework: Fundamental
// Value, Technical Entry, Risk Assessment and the advisory Timing Quality
// gate. All four gates are always evaluated so their reasoning is always
// available; only the final decision logic short-circuits on a gate 1-3
// failure.
package gates

import (
	"fmt"
	"time"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/retriever"
	"github.com/quantrun/quantrun/internal/scoring"
)

// PositionContext carries the portfolio-side inputs of the risk gate.
// Zero values mean "no existing exposure", the correct cold state.
type PositionContext struct {
	// SectorExposure is the fraction of the portfolio already in the
	// candidate's sector.
	SectorExposure float64 `json:"sector_exposure"`
	// ProposedPositionPct is the weight the new position would take.
	ProposedPositionPct float64 `json:"proposed_position_pct"`
}

// Input bundles everything one evaluation needs. The framework reads it and
// nothing else; there is no shared state between evaluations.
type Input struct {
	Ticker       string
	AsOf         time.Time
	Bars         []domain.PriceBar
	Snapshot     *indicators.Snapshot
	Patterns     []indicators.Signal
	Priority     scoring.PriorityScore
	Fundamentals *domain.FundamentalsSnapshot
	Position     PositionContext
	History      retriever.HistoricalContext
}

// Framework evaluates the four gates and derives the final decision.
type Framework struct {
	cfg Config
}

// New validates the configuration eagerly and returns a framework.
func New(cfg Config) (*Framework, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gate framework: %w", err)
	}
	return &Framework{cfg: cfg}, nil
}

// Thresholds exposes the active threshold map (for display surfaces).
func (f *Framework) Thresholds() map[domain.GateName]float64 {
	out := make(map[domain.GateName]float64, len(f.cfg.Thresholds))
	for k, v := range f.cfg.Thresholds {
		out[k] = v
	}
	return out
}

// Evaluate runs all four gates in order and assembles the decision. It is a
// pure function of its input.
func (f *Framework) Evaluate(in Input) domain.Decision {
	gateResults := []domain.GateResult{
		f.evaluateFundamental(in),
		f.evaluateTechnical(in),
		f.evaluateRisk(in),
		f.evaluateTiming(in),
	}

	return domain.Decision{
		Ticker:            in.Ticker,
		AsOf:              in.AsOf,
		Final:             Decide(gateResults),
		OverallConfidence: f.OverallConfidence(gateResults),
		Gates:             gateResults,
	}
}

// Decide applies the decision rule to a completed set of gate results:
// all four pass -> BUY; gates 1-3 pass but timing fails -> WAIT (sound
// setup, poor timing, re-evaluate later); any of gates 1-3 failing -> PASS
// regardless of timing.
func Decide(results []domain.GateResult) domain.Action {
	hardPass := true
	timingPass := true
	for _, g := range results {
		if g.Gate == domain.GateTiming {
			timingPass = g.Passed
			continue
		}
		if !g.Passed {
			hardPass = false
		}
	}
	switch {
	case hardPass && timingPass:
		return domain.ActionBuy
	case hardPass:
		return domain.ActionWait
	default:
		return domain.ActionPass
	}
}

// OverallConfidence is the weighted average of the four gate scores using
// the configured confidence weights.
func (f *Framework) OverallConfidence(results []domain.GateResult) float64 {
	var sum float64
	for _, g := range results {
		sum += g.Score * f.cfg.ConfidenceWeights[g.Gate]
	}
	return sum
}

// result assembles an immutable GateResult against the configured threshold.
func (f *Framework) result(gate domain.GateName, score, confidence float64, reasons []domain.Reason, details map[string]float64) domain.GateResult {
	score = clampScore(score)
	threshold := f.cfg.Thresholds[gate]
	return domain.GateResult{
		Gate:       gate,
		Score:      score,
		Threshold:  threshold,
		Passed:     score >= threshold,
		Confidence: clampScore(confidence),
		Reasoning:  reasons,
		Details:    details,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func reason(metric, detail string, impact float64) domain.Reason {
	return domain.Reason{Metric: metric, Detail: detail, Impact: impact}
}
