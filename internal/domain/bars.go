package domain

import (
	"fmt"
	"time"
)

// PriceBar is a single daily OHLCV record. Bars are immutable once recorded
// and always handled as a chronological slice per ticker. Missing trading
// days are expected; consumers index by position, never by calendar offset.
type PriceBar struct {
	Date   time.Time `json:"date" db:"bar_date"`
	Open   float64   `json:"open" db:"open"`
	High   float64   `json:"high" db:"high"`
	Low    float64   `json:"low" db:"low"`
	Close  float64   `json:"close" db:"close"`
	Volume float64   `json:"volume" db:"volume"`
}

// ValidateBars checks that a bar series is non-empty and strictly ascending
// by date. Data sources are required to return ascending bars; this guards
// against a misbehaving provider before any indicator math runs.
func ValidateBars(bars []PriceBar) error {
	if len(bars) == 0 {
		return fmt.Errorf("empty bar series")
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return fmt.Errorf("bars out of order at index %d: %s !> %s",
				i, bars[i].Date.Format("2006-01-02"), bars[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes extracts the close series in bar order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume series in bar order.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
