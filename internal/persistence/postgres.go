// Package persistence reads the historical decision store. The store is
// owned by the analysis collaborator; this engine only ever queries it.
//
// Expected layout (managed elsewhere):
//
//	CREATE TABLE historical_decisions (
//	    ticker        text        NOT NULL,
//	    decision_date timestamptz NOT NULL,
//	    sector        text        NOT NULL DEFAULT '',
//	    decision      text        NOT NULL,
//	    confidence    float8      NOT NULL,
//	    outcome       float8,
//	    embedding     float8[]    NOT NULL,
//	    PRIMARY KEY (ticker, decision_date)
//	);
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/quantrun/quantrun/internal/domain"
	"github.com/quantrun/quantrun/internal/retriever"
)

// HistoricalStore implements retriever.Store on Postgres. Similarity is
// ranked in-process with exact cosine over the candidate rows; the trailing
// CandidateWindow keeps that scan bounded.
type HistoricalStore struct {
	db *sqlx.DB
	// CandidateWindow bounds how far back SimilaritySearch scans.
	CandidateWindow time.Duration
}

// NewHistoricalStore wraps an open sqlx handle.
func NewHistoricalStore(db *sqlx.DB) *HistoricalStore {
	return &HistoricalStore{
		db:              db,
		CandidateWindow: 2 * 365 * 24 * time.Hour,
	}
}

// decisionRow is the scan target for historical_decisions.
type decisionRow struct {
	Ticker     string          `db:"ticker"`
	Date       time.Time       `db:"decision_date"`
	Sector     string          `db:"sector"`
	Decision   string          `db:"decision"`
	Confidence float64         `db:"confidence"`
	Outcome    sql.NullFloat64 `db:"outcome"`
	Embedding  pq.Float64Array `db:"embedding"`
}

func (r decisionRow) toRecord() retriever.HistoricalRecord {
	rec := retriever.HistoricalRecord{
		Ticker:     r.Ticker,
		Date:       r.Date,
		Sector:     r.Sector,
		Decision:   r.Decision,
		Confidence: r.Confidence,
		Embedding:  []float64(r.Embedding),
	}
	if r.Outcome.Valid {
		rec.Outcome = domain.Some(r.Outcome.Float64)
	}
	return rec
}

const selectColumns = `ticker, decision_date, sector, decision, confidence, outcome, embedding`

// SimilaritySearch implements retriever.Store. Candidates are fetched and
// cosine-ranked in-process; rows below the similarity floor are dropped.
func (s *HistoricalStore) SimilaritySearch(ctx context.Context, vector []float64, topK int, filters retriever.Filters) ([]retriever.Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidConfig)
	}

	query := `SELECT ` + selectColumns + ` FROM historical_decisions WHERE decision_date >= $1`
	args := []interface{}{s.candidateSince(filters)}
	if filters.Ticker != "" {
		query += ` AND ticker = $2`
		args = append(args, filters.Ticker)
	}
	query += ` ORDER BY decision_date DESC`

	var rows []decisionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("similarity search query: %w", err)
	}

	matches := make([]retriever.Match, 0, len(rows))
	for _, row := range rows {
		sim := retriever.Cosine(vector, []float64(row.Embedding))
		if sim < filters.MinSimilarity {
			continue
		}
		matches = append(matches, retriever.Match{Record: row.toRecord(), Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *HistoricalStore) candidateSince(filters retriever.Filters) time.Time {
	if !filters.Since.IsZero() {
		return filters.Since
	}
	return time.Now().Add(-s.CandidateWindow)
}

// TickerHistory implements retriever.Store, oldest decision first.
func (s *HistoricalStore) TickerHistory(ctx context.Context, ticker string) ([]retriever.HistoricalRecord, error) {
	var rows []decisionRow
	query := `SELECT ` + selectColumns + ` FROM historical_decisions WHERE ticker = $1 ORDER BY decision_date ASC`
	if err := s.db.SelectContext(ctx, &rows, query, ticker); err != nil {
		return nil, fmt.Errorf("ticker history query: %w", err)
	}
	out := make([]retriever.HistoricalRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

// SectorRecords implements retriever.Store.
func (s *HistoricalStore) SectorRecords(ctx context.Context, sector string, since time.Time) ([]retriever.HistoricalRecord, error) {
	var rows []decisionRow
	query := `SELECT ` + selectColumns + ` FROM historical_decisions WHERE sector = $1 AND decision_date >= $2 ORDER BY decision_date ASC`
	if err := s.db.SelectContext(ctx, &rows, query, sector, since); err != nil {
		return nil, fmt.Errorf("sector records query: %w", err)
	}
	out := make([]retriever.HistoricalRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}
