// Package engine wires the indicator, scoring, retrieval and gate stages
// into the two public entry points: single-ticker Evaluate and ranked
// ScoreBatch. Every per-ticker failure is contained inside that ticker's
// result; a batch never aborts because one ticker broke.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/data"
	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/indicators"
	"github.com/quantrun/quantrun/internal/metrics"
	"github.com/quantrun/quantrun/internal/retriever"
	"github.com/quantrun/quantrun/internal/scoring"
)

// Config bounds the orchestration layer.
type Config struct {
	// LookbackDays is how many trading days of history an evaluation uses.
	LookbackDays int `yaml:"lookback_days"`
	// CalendarPadding stretches the bar-fetch window to cover weekends and
	// holidays, as a multiple of LookbackDays.
	CalendarPadding float64 `yaml:"calendar_padding"`
	// Concurrency caps parallel per-ticker work inside a batch.
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns production orchestration settings.
func DefaultConfig() Config {
	return Config{LookbackDays: 250, CalendarPadding: 1.6, Concurrency: 8}
}

// Validate rejects settings that would starve the indicator stage.
func (c Config) Validate() error {
	if c.LookbackDays < 60 {
		return fmt.Errorf("%w: lookback_days must be >= 60", domain.ErrInvalidConfig)
	}
	if c.CalendarPadding < 1.0 {
		return fmt.Errorf("%w: calendar_padding must be >= 1", domain.ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be >= 1", domain.ErrInvalidConfig)
	}
	return nil
}

// Engine is the decision engine facade. It is stateless per invocation:
// concurrent Evaluate calls for different tickers share nothing mutable.
type Engine struct {
	cfg        Config
	source     data.Source
	indicators *indicators.Engine
	scorer     *scoring.Scorer
	gates      *gates.Framework
	retriever  *retriever.Retriever
	metrics    *metrics.Registry
	now        func() time.Time
}

// New assembles an engine. All stage configs were validated by their own
// constructors; only the orchestration config is validated here. metrics
// may be nil when instrumentation is not wanted.
func New(cfg Config, source data.Source, ind *indicators.Engine, scorer *scoring.Scorer,
	framework *gates.Framework, retr *retriever.Retriever, m *metrics.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil market data source", domain.ErrInvalidConfig)
	}
	return &Engine{
		cfg:        cfg,
		source:     source,
		indicators: ind,
		scorer:     scorer,
		gates:      framework,
		retriever:  retr,
		metrics:    m,
		now:        time.Now,
	}, nil
}

// Evaluate runs the full pipeline for one ticker and always returns a
// decision. Data source failures produce a contained PASS decision with the
// failure documented in the gate reasoning, never an error.
func (e *Engine) Evaluate(ctx context.Context, ticker string, asOf time.Time, position gates.PositionContext) domain.Decision {
	started := e.now()
	if e.metrics != nil {
		e.metrics.ActiveEvaluations.Inc()
		defer e.metrics.ActiveEvaluations.Dec()
	}

	decision := e.evaluate(ctx, ticker, asOf, position)
	decision.ID = uuid.NewString()
	decision.EvaluatedAt = e.now()

	if e.metrics != nil {
		e.metrics.EvaluationDuration.Observe(e.now().Sub(started).Seconds())
		e.metrics.Evaluations.WithLabelValues(string(decision.Final), boolLabel(decision.EvaluationFailed)).Inc()
		for _, g := range decision.Gates {
			e.metrics.GateResults.WithLabelValues(string(g.Gate), passLabel(g.Passed)).Inc()
		}
	}

	log.Info().
		Str("ticker", ticker).
		Str("final", string(decision.Final)).
		Float64("confidence", decision.OverallConfidence).
		Bool("failed", decision.EvaluationFailed).
		Msg("evaluation finished")
	return decision
}

func (e *Engine) evaluate(ctx context.Context, ticker string, asOf time.Time, position gates.PositionContext) domain.Decision {
	bars, fundamentals, err := e.fetch(ctx, ticker, asOf)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("evaluation failed, containing")
		return e.failedDecision(ticker, asOf, err)
	}

	snap := e.indicators.Compute(bars, e.cfg.LookbackDays)
	patterns := indicators.DetectPatterns(&snap)
	priority := e.scorer.Score(ticker, &snap, fundamentals)

	history := e.retrieveContext(ctx, ticker, asOf, &snap, fundamentals, patterns)

	return e.gates.Evaluate(gates.Input{
		Ticker:       ticker,
		AsOf:         asOf,
		Bars:         bars,
		Snapshot:     &snap,
		Patterns:     patterns,
		Priority:     priority,
		Fundamentals: fundamentals,
		Position:     position,
		History:      history,
	})
}

// fetch pulls bars and fundamentals. A bar failure is fatal for the
// evaluation (contained upstream); a fundamentals failure degrades to nil,
// because the fundamental gate already knows how to reason about missing
// fundamentals and partial analysis beats none.
func (e *Engine) fetch(ctx context.Context, ticker string, asOf time.Time) ([]domain.PriceBar, *domain.FundamentalsSnapshot, error) {
	calendarDays := int(float64(e.cfg.LookbackDays) * e.cfg.CalendarPadding)
	start := asOf.AddDate(0, 0, -calendarDays)

	bars, err := e.source.GetBars(ctx, ticker, start, asOf)
	if err != nil {
		return nil, nil, err
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}

	fundamentals, err := e.source.GetFundamentals(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("fundamentals unavailable, degrading")
		fundamentals = nil
	}
	return bars, fundamentals, nil
}

func (e *Engine) retrieveContext(ctx context.Context, ticker string, asOf time.Time,
	snap *indicators.Snapshot, fundamentals *domain.FundamentalsSnapshot,
	patterns []indicators.Signal) retriever.HistoricalContext {
	if e.retriever == nil {
		return retriever.HistoricalContext{}
	}
	sector := ""
	if fundamentals != nil {
		sector = fundamentals.Sector
	}
	started := e.now()
	history := e.retriever.Retrieve(ctx, retriever.Situation{
		Ticker:       ticker,
		Sector:       sector,
		AsOf:         asOf,
		Snapshot:     snap,
		Fundamentals: fundamentals,
		Patterns:     patterns,
	})
	if e.metrics != nil {
		e.metrics.RetrievalDuration.Observe(e.now().Sub(started).Seconds())
		if history.Degraded {
			e.metrics.RetrievalDegraded.Inc()
		}
	}
	return history
}

// failedDecision is the containment path: a PASS with the fundamental and
// technical gates zeroed for the data failure, the remaining gates marked
// as never evaluated, and the failure preserved for audit. Unevaluated
// gates keep a zero score; they have no meaningful one.
func (e *Engine) failedDecision(ticker string, asOf time.Time, cause error) domain.Decision {
	unavailable := []domain.Reason{{Metric: "data_source", Detail: "data unavailable"}}
	skipped := []domain.Reason{{Metric: "data_source", Detail: "not evaluated; upstream data fetch failed"}}
	gateResults := make([]domain.GateResult, 0, len(domain.GateOrder))
	for i, name := range domain.GateOrder {
		reasons := unavailable
		if i >= 2 {
			reasons = skipped
		}
		gateResults = append(gateResults, domain.GateResult{
			Gate:      name,
			Score:     0,
			Threshold: e.gates.Thresholds()[name],
			Passed:    false,
			Reasoning: reasons,
		})
	}
	return domain.Decision{
		Ticker:            ticker,
		AsOf:              asOf,
		Final:             domain.ActionPass,
		OverallConfidence: 0,
		Gates:             gateResults,
		EvaluationFailed:  true,
		FailureReason:     cause.Error(),
	}
}

// Explain re-serializes a decision's reasoning without recomputing it.
func (e *Engine) Explain(d *domain.Decision) domain.StructuredReasoning {
	return d.Explain()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func passLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
