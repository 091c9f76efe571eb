package retriever

import (
	"time"

	"github.com/quantrun/quantrun/internal/domain"
)

// HistoricalRecord is one stored past decision, read-only from the engine's
// point of view. The engine never writes these; the analysis store
// collaborator owns them.
type HistoricalRecord struct {
	Ticker     string    `json:"ticker" db:"ticker"`
	Date       time.Time `json:"date" db:"decision_date"`
	Sector     string    `json:"sector" db:"sector"`
	Decision   string    `json:"decision" db:"decision"`
	Confidence float64   `json:"confidence" db:"confidence"`
	// Outcome is the realized return of the decision when known.
	Outcome   domain.Opt `json:"outcome"`
	Embedding []float64  `json:"-"`
}

// Match pairs a record with its cosine similarity to the query vector.
type Match struct {
	Record     HistoricalRecord `json:"record"`
	Similarity float64          `json:"similarity"`
}

// SectorStats aggregates recent decisions inside one sector over a trailing
// window.
type SectorStats struct {
	Sector        string  `json:"sector"`
	WindowDays    int     `json:"window_days"`
	SampleCount   int     `json:"sample_count"`
	BuySignalRate float64 `json:"buy_signal_rate"` // fraction of decisions that were BUY
	AvgConfidence float64 `json:"avg_confidence"`
}

// HistoricalContext is everything retrieval contributes to gate evaluation.
// An empty context is the normal cold-start state, not an error; the timing
// gate degrades to sector/seasonal signals when Matches is empty.
type HistoricalContext struct {
	Matches       []Match            `json:"matches"`        // cross-ticker, by similarity
	TickerHistory []HistoricalRecord `json:"ticker_history"` // chronological, same ticker
	SectorStats   SectorStats        `json:"sector_stats"`

	// Degraded marks contexts produced by the fallback path (timeout,
	// store failure); Reason says why.
	Degraded bool   `json:"degraded,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PatternSuccessRate is the fraction of sufficiently similar past decisions
// with a positive known outcome. ok is false when no match carries an
// outcome, which callers treat as "no precedent" rather than zero.
func (hc *HistoricalContext) PatternSuccessRate() (rate float64, ok bool) {
	var wins, total int
	for _, m := range hc.Matches {
		out, known := m.Record.Outcome.Value()
		if !known {
			continue
		}
		total++
		if out > 0 {
			wins++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(wins) / float64(total), true
}

// Filters narrow a similarity search.
type Filters struct {
	MinSimilarity float64
	// Ticker restricts matches to one symbol when non-empty.
	Ticker string
	// Since drops records older than the given time when non-zero.
	Since time.Time
}
