package indicators

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/quantrun/quantrun/internal/domain"
)

// bollingerBands is the latest band reading plus the relative band width
// series needed for squeeze detection.
type bollingerBands struct {
	Upper, Mid, Lower domain.Opt
	// Widths holds (upper-lower)/mid for every bar with enough history,
	// oldest first, current bar last.
	Widths []float64
}

// computeBollinger builds period-length bands at stdDev sigmas around the
// SMA. Population standard deviation, matching the conventional definition.
func computeBollinger(prices []float64, period int, stdDev float64) bollingerBands {
	var bb bollingerBands
	if len(prices) < period {
		return bb
	}

	bb.Widths = make([]float64, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		window := prices[i-period+1 : i+1]
		mid := stat.Mean(window, nil)
		sd := stat.PopStdDev(window, nil)
		upper := mid + stdDev*sd
		lower := mid - stdDev*sd
		if mid > 0 {
			bb.Widths = append(bb.Widths, (upper-lower)/mid)
		} else {
			bb.Widths = append(bb.Widths, 0)
		}
		if i == len(prices)-1 {
			bb.Upper = domain.Some(upper)
			bb.Mid = domain.Some(mid)
			bb.Lower = domain.Some(lower)
		}
	}
	return bb
}

// detectSqueeze classifies the current band width against the trailing
// window-day width distribution. Detected when the current width sits in the
// bottom percentile of that distribution; strength is the fraction of
// trailing days with wider bands than today.
func detectSqueeze(widths []float64, window int, percentile float64) Squeeze {
	// Need a full trailing window plus the current reading.
	if len(widths) < window+1 {
		return Squeeze{}
	}
	current := widths[len(widths)-1]
	trailing := widths[len(widths)-1-window : len(widths)-1]

	wider := 0
	for _, w := range trailing {
		if w > current {
			wider++
		}
	}
	strength := float64(wider) / float64(len(trailing))

	sorted := append([]float64(nil), trailing...)
	sort.Float64s(sorted)
	cutoff := stat.Quantile(percentile/100.0, stat.Empirical, sorted, nil)

	return Squeeze{
		Valid:           true,
		Detected:        current <= cutoff,
		Strength:        strength,
		WidthPercentile: 100.0 * (1.0 - strength),
	}
}
