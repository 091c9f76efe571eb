package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/gates"
	"github.com/quantrun/quantrun/internal/scoring"
)

// ScoreBatch computes priority scores for many tickers and ranks them.
// Scoring fans out over a bounded worker pool; ranking happens once, after
// every score is in, because rank is a property of the whole batch. A
// ticker whose data fetch fails still appears in the output, flagged
// low-confidence with a zeroed composite, so the batch never shrinks
// silently.
func (e *Engine) ScoreBatch(ctx context.Context, tickers []string, asOf time.Time) []scoring.PriorityScore {
	if e.metrics != nil {
		e.metrics.BatchSize.Set(float64(len(tickers)))
	}

	scores := make([]scoring.PriorityScore, len(tickers))
	e.forEach(ctx, len(tickers), func(i int) {
		scores[i] = e.scoreOne(ctx, tickers[i], asOf)
	})
	return scoring.Rank(scores)
}

func (e *Engine) scoreOne(ctx context.Context, ticker string, asOf time.Time) scoring.PriorityScore {
	bars, fundamentals, err := e.fetch(ctx, ticker, asOf)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("batch score failed, containing")
		return scoring.PriorityScore{
			Ticker:        ticker,
			LowConfidence: true,
			Notes:         []string{"evaluation failed: " + err.Error()},
		}
	}
	snap := e.indicators.Compute(bars, e.cfg.LookbackDays)
	return e.scorer.Score(ticker, &snap, fundamentals)
}

// EvaluateBatch runs full evaluations for many tickers concurrently.
// Output order matches input order; failed tickers carry contained PASS
// decisions with the evaluation-failed flag set.
func (e *Engine) EvaluateBatch(ctx context.Context, tickers []string, asOf time.Time, position gates.PositionContext) []domain.Decision {
	decisions := make([]domain.Decision, len(tickers))
	e.forEach(ctx, len(tickers), func(i int) {
		decisions[i] = e.Evaluate(ctx, tickers[i], asOf, position)
	})
	return decisions
}

// forEach fans fn out over a bounded worker pool. Each index gets its own
// result slot, so workers never share mutable state.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) {
	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			// Run the rest inline: the cancelled context makes their
			// fetches fail fast, which lands them on the containment
			// path instead of leaving holes in the batch.
			fn(i)
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
