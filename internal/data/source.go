// Package data defines the market data capability the engine consumes and
// the decorators that make a vendor client production-safe: rate limiting,
// circuit breaking and Redis caching. The engine itself never talks to a
// vendor directly.
package data

import (
	"context"
	"time"

	"github.com/quantrun/quantrun/internal/domain"
)

// Source is the market data capability. Implementations must return bars
// sorted ascending by date with no entries for non-trading days.
// GetFundamentals returns (nil, nil) when the vendor has no fundamentals
// for the ticker; callers treat that as "unavailable", not as an error.
type Source interface {
	GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error)
	GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalsSnapshot, error)
}
