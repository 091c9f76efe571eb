// Package retriever embeds the current market situation and pulls the most
// similar historical decisions out of the analysis store, plus same-ticker
// history and sector aggregates. Retrieval is strictly best-effort: every
// failure mode degrades to a usable (possibly empty) context so gate
// evaluation is never blocked on the store.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/indicators"
)

// Embedder turns a situation summary into a fixed-dimension vector. It is
// an external collaborator (typically a remote model) and the one I/O-bound
// step of retrieval besides the store itself.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Store is the read-only view of the historical decision store.
type Store interface {
	// SimilaritySearch returns up to topK records ranked descending by
	// cosine similarity to the query vector, honoring the filters.
	SimilaritySearch(ctx context.Context, vector []float64, topK int, filters Filters) ([]Match, error)
	// TickerHistory returns the full chronological decision history for
	// one ticker.
	TickerHistory(ctx context.Context, ticker string) ([]HistoricalRecord, error)
	// SectorRecords returns decisions in a sector since the given time.
	SectorRecords(ctx context.Context, sector string, since time.Time) ([]HistoricalRecord, error)
}

// Config controls retrieval breadth and the per-call timeout.
type Config struct {
	TopK             int           `yaml:"top_k"`
	MinSimilarity    float64       `yaml:"min_similarity"`
	SectorWindowDays int           `yaml:"sector_window_days"`
	Timeout          time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the production retrieval settings.
func DefaultConfig() Config {
	return Config{
		TopK:             5,
		MinSimilarity:    0.7,
		SectorWindowDays: 30,
		Timeout:          3 * time.Second,
	}
}

// Validate rejects settings that would make retrieval meaningless.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidConfig)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [0,1]", domain.ErrInvalidConfig)
	}
	if c.SectorWindowDays <= 0 {
		return fmt.Errorf("%w: sector_window_days must be positive", domain.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: retrieval timeout must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// Retriever performs one read-only retrieval per evaluation.
type Retriever struct {
	embed Embedder
	store Store
	cfg   Config
	now   func() time.Time
}

// New validates the configuration eagerly and returns a retriever.
func New(embed Embedder, store Store, cfg Config) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}
	return &Retriever{embed: embed, store: store, cfg: cfg, now: time.Now}, nil
}

// Situation is the current state being matched against history.
type Situation struct {
	Ticker       string
	Sector       string
	AsOf         time.Time
	Snapshot     *indicators.Snapshot
	Fundamentals *domain.FundamentalsSnapshot
	Patterns     []indicators.Signal
}

// SummaryText renders the fixed textual summary that gets embedded. The
// layout is stable on purpose: embeddings of like situations must stay
// comparable across releases.
func (s Situation) SummaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticker=%s sector=%s date=%s", s.Ticker, s.Sector, s.AsOf.Format("2006-01-02"))
	if s.Snapshot != nil {
		fmt.Fprintf(&b, " rsi=%s macd_hist=%s volume_ratio=%s return20d=%s",
			optText(s.Snapshot.RSI), optText(s.Snapshot.MACDHist),
			optText(s.Snapshot.VolumeRatio), optText(s.Snapshot.Return20d))
		fmt.Fprintf(&b, " squeeze=%t divergence_bull=%t", s.Snapshot.Squeeze.Detected, s.Snapshot.Divergence.Bullish)
	}
	if s.Fundamentals != nil {
		fmt.Fprintf(&b, " pe=%s peg=%s de=%s growth=%s",
			optText(s.Fundamentals.PERatio), optText(s.Fundamentals.PEGRatio),
			optText(s.Fundamentals.DebtToEquity), optText(s.Fundamentals.RevenueGrowth))
	}
	for _, p := range s.Patterns {
		fmt.Fprintf(&b, " pattern=%s:%.1f", p.Name, p.Score)
	}
	return b.String()
}

func optText(o domain.Opt) string {
	v, ok := o.Value()
	if !ok {
		return "na"
	}
	return fmt.Sprintf("%.3f", v)
}

// Retrieve builds the historical context for a situation. It never returns
// an error: timeouts and store failures produce a degraded (possibly empty)
// context, and an empty store is the expected cold-start state.
func (r *Retriever) Retrieve(ctx context.Context, situation Situation) HistoricalContext {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	hc := HistoricalContext{}

	vector, err := r.embed.Embed(ctx, situation.SummaryText())
	if err != nil {
		return r.degrade(hc, situation.Ticker, err)
	}

	matches, err := r.store.SimilaritySearch(ctx, vector, r.cfg.TopK, Filters{
		MinSimilarity: r.cfg.MinSimilarity,
	})
	if err != nil {
		return r.degrade(hc, situation.Ticker, err)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > r.cfg.TopK {
		matches = matches[:r.cfg.TopK]
	}
	hc.Matches = matches

	history, err := r.store.TickerHistory(ctx, situation.Ticker)
	if err != nil {
		return r.degrade(hc, situation.Ticker, err)
	}
	hc.TickerHistory = history

	since := r.now().AddDate(0, 0, -r.cfg.SectorWindowDays)
	sectorRecords, err := r.store.SectorRecords(ctx, situation.Sector, since)
	if err != nil {
		return r.degrade(hc, situation.Ticker, err)
	}
	hc.SectorStats = aggregateSector(situation.Sector, r.cfg.SectorWindowDays, sectorRecords)

	return hc
}

// degrade converts a retrieval failure into a usable partial context.
func (r *Retriever) degrade(hc HistoricalContext, ticker string, err error) HistoricalContext {
	hc.Degraded = true
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		hc.Reason = domain.ErrRetrievalTimeout.Error()
	} else {
		hc.Reason = err.Error()
	}
	log.Warn().Err(err).Str("ticker", ticker).Msg("historical retrieval degraded")
	return hc
}

func aggregateSector(sector string, windowDays int, records []HistoricalRecord) SectorStats {
	stats := SectorStats{Sector: sector, WindowDays: windowDays, SampleCount: len(records)}
	if len(records) == 0 {
		return stats
	}
	confidences := make([]float64, len(records))
	buys := 0
	for i, rec := range records {
		confidences[i] = rec.Confidence
		if rec.Decision == string(domain.ActionBuy) {
			buys++
		}
	}
	stats.BuySignalRate = float64(buys) / float64(len(records))
	stats.AvgConfidence = stat.Mean(confidences, nil)
	return stats
}
