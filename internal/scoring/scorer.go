// Package scoring combines indicator, volume, momentum and fundamental
// readings into one composite priority score per ticker. Scoring is pure:
// the same inputs always produce the same score, and scoring one ticker
// never depends on any other ticker having been scored first.
package scoring

import (
	"fmt"
	"math"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/indicators"
)

// Weights are the fixed composite weights. They must sum to 1.
type Weights struct {
	Technical   float64 `yaml:"technical"`
	Volume      float64 `yaml:"volume"`
	Momentum    float64 `yaml:"momentum"`
	Fundamental float64 `yaml:"fundamental"`
}

// DefaultWeights returns the production composite weighting.
func DefaultWeights() Weights {
	return Weights{Technical: 0.40, Volume: 0.20, Momentum: 0.15, Fundamental: 0.25}
}

// Validate rejects weight sets that do not form a convex combination.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Technical, w.Volume, w.Momentum, w.Fundamental} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: composite weight out of [0,1]", domain.ErrInvalidConfig)
		}
	}
	if sum := w.Technical + w.Volume + w.Momentum + w.Fundamental; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: composite weights sum to %.4f, want 1", domain.ErrInvalidConfig, sum)
	}
	return nil
}

// PriorityScore is the scored view of one ticker. All sub-scores and the
// composite sit in [0,100]. Rank is 0 until assigned by Rank over a batch.
type PriorityScore struct {
	Ticker      string  `json:"ticker"`
	Technical   float64 `json:"technical"`
	Volume      float64 `json:"volume"`
	Momentum    float64 `json:"momentum"`
	Fundamental float64 `json:"fundamental"`
	Composite   float64 `json:"composite"`
	Rank        int     `json:"rank,omitempty"`

	// LowConfidence flags scores computed with missing indicator or
	// fundamental inputs; Notes records which inputs were absent.
	LowConfidence bool     `json:"low_confidence,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

// Scorer computes priority scores with a fixed weight set.
type Scorer struct {
	weights Weights
}

// NewScorer validates the weights eagerly.
func NewScorer(weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	return &Scorer{weights: weights}, nil
}

// Score builds the composite score for one ticker. fundamentals may be nil
// when the vendor has nothing; the fundamental sub-score then falls back to
// its neutral band with a low-confidence note.
func (s *Scorer) Score(ticker string, snap *indicators.Snapshot, fundamentals *domain.FundamentalsSnapshot) PriorityScore {
	ps := PriorityScore{Ticker: ticker}

	ps.Technical = s.technicalScore(snap, &ps)
	ps.Volume = s.volumeScore(snap, &ps)
	ps.Momentum = s.momentumScore(snap, &ps)
	ps.Fundamental = s.fundamentalScore(fundamentals, &ps)

	composite := s.weights.Technical*ps.Technical +
		s.weights.Volume*ps.Volume +
		s.weights.Momentum*ps.Momentum +
		s.weights.Fundamental*ps.Fundamental
	ps.Composite = clamp100(math.Round(composite))
	return ps
}

// technicalBase keeps a data-complete but signal-free chart in neutral
// territory; the discrete awards move it toward 100.
const technicalBase = 40.0

func (s *Scorer) technicalScore(snap *indicators.Snapshot, ps *PriorityScore) float64 {
	score := technicalBase

	if rsi, ok := snap.RSI.Value(); ok {
		if rsi < indicators.RSIOversold {
			score += 15
		}
	} else {
		ps.note("rsi unavailable")
	}

	if lower, ok := snap.BollingerLower.Value(); ok && lower > 0 {
		// Near means within 2% of the lower band.
		if snap.Close <= lower*1.02 {
			score += 10
		}
	} else {
		ps.note("bollinger unavailable")
	}

	if snap.BullishCross {
		score += 15
	}

	ma20, ok20 := snap.MA20.Value()
	ma50, ok50 := snap.MA50.Value()
	ma200, ok200 := snap.MA200.Value()
	switch {
	case ok20 && ok50 && ok200:
		if ma20 > ma50 && ma50 > ma200 {
			score += 20
		}
	default:
		ps.note("moving average alignment unavailable")
	}

	return clamp100(score)
}

// volumeBreakpoints map volume ratio to discrete points, highest first.
var volumeBreakpoints = []struct {
	min    float64
	points float64
}{
	{2.0, 20},
	{1.5, 10},
	{1.0, 5},
}

// volumeScale maps the 0-20 point range onto 0-100.
const volumeScale = 5.0

func (s *Scorer) volumeScore(snap *indicators.Snapshot, ps *PriorityScore) float64 {
	ratio, ok := snap.VolumeRatio.Value()
	if !ok {
		ps.note("volume ratio unavailable")
		return 0
	}
	for _, bp := range volumeBreakpoints {
		if ratio > bp.min {
			return clamp100(bp.points * volumeScale)
		}
	}
	return 0
}

// momentumBreakpoints keep a narrow spread; momentum is advisory, not a
// hard filter.
var momentumBreakpoints = []struct {
	min   float64
	score float64
}{
	{0.05, 65},
	{0.0, 60},
}

const momentumFloor = 45.0

func (s *Scorer) momentumScore(snap *indicators.Snapshot, ps *PriorityScore) float64 {
	ret, ok := snap.Return20d.Value()
	if !ok {
		ps.note("trailing return unavailable")
		return momentumFloor
	}
	for _, bp := range momentumBreakpoints {
		if ret > bp.min {
			return bp.score
		}
	}
	return momentumFloor
}

// peBreakpoints is a coarse valuation proxy. Sector-relative PE lives in
// the fundamental gate; the composite only needs a cheap/neutral split.
var peBreakpoints = []struct {
	below float64
	score float64
}{
	{15, 70},
	{25, 60},
}

const fundamentalFloor = 40.0

func (s *Scorer) fundamentalScore(f *domain.FundamentalsSnapshot, ps *PriorityScore) float64 {
	if f == nil {
		ps.note("fundamentals unavailable")
		return fundamentalFloor
	}
	pe, ok := f.PERatio.Value()
	if !ok || pe <= 0 {
		ps.note("pe ratio unavailable")
		return fundamentalFloor
	}
	for _, bp := range peBreakpoints {
		if pe < bp.below {
			return bp.score
		}
	}
	return fundamentalFloor
}

func (ps *PriorityScore) note(msg string) {
	ps.LowConfidence = true
	ps.Notes = append(ps.Notes, msg)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
