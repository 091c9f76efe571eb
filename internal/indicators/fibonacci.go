package indicators

import "github.com/quantrun/quantrun/internal/domain"

// computeFib finds the swing high/low over the final lookback bars and lays
// retracement levels between them. Levels are measured down from the swing
// high, so Level618 sits 61.8% of the range below it.
func computeFib(bars []domain.PriceBar, lookback int) FibLevels {
	if len(bars) < lookback || lookback < 2 {
		return FibLevels{}
	}
	window := bars[len(bars)-lookback:]

	high := window[0].High
	low := window[0].Low
	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	span := high - low
	if span <= 0 {
		return FibLevels{}
	}

	return FibLevels{
		Valid:     true,
		SwingHigh: high,
		SwingLow:  low,
		Level236:  high - 0.236*span,
		Level382:  high - 0.382*span,
		Level500:  high - 0.500*span,
		Level618:  high - 0.618*span,
		Level786:  high - 0.786*span,
	}
}
