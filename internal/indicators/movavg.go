package indicators

import (
	"gonum.org/v1/gonum/stat"

	"github.com/quantrun/quantrun/internal/domain"
)

// latestSMA returns the simple moving average of the final period values.
func latestSMA(values []float64, period int) domain.Opt {
	if len(values) < period || period <= 0 {
		return domain.None()
	}
	return domain.Some(stat.Mean(values[len(values)-period:], nil))
}

// volumeRatio is the latest volume over the trailing-average volume,
// excluding the latest bar from the average.
func volumeRatio(volumes []float64, avgPeriod int) domain.Opt {
	if len(volumes) < avgPeriod+1 {
		return domain.None()
	}
	trailing := volumes[len(volumes)-1-avgPeriod : len(volumes)-1]
	avg := stat.Mean(trailing, nil)
	if avg <= 0 {
		return domain.None()
	}
	return domain.Some(volumes[len(volumes)-1] / avg)
}

// rollingVWAP is the volume-weighted typical price over the final period
// bars, the benchmark used by pattern distance checks.
func rollingVWAP(bars []domain.PriceBar, period int) domain.Opt {
	if len(bars) < period {
		return domain.None()
	}
	var pv, vol float64
	for _, b := range bars[len(bars)-period:] {
		typical := (b.High + b.Low + b.Close) / 3.0
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol <= 0 {
		return domain.None()
	}
	return domain.Some(pv / vol)
}

// trailingReturn is the fractional close-to-close return over period bars.
func trailingReturn(prices []float64, period int) domain.Opt {
	if len(prices) < period+1 {
		return domain.None()
	}
	base := prices[len(prices)-1-period]
	if base <= 0 {
		return domain.None()
	}
	return domain.Some(prices[len(prices)-1]/base - 1.0)
}

// pivotSupports derives classic floor-trader supports from the prior bar:
// P = (H+L+C)/3, S1 = 2P-H, S2 = P-(H-L).
func pivotSupports(bars []domain.PriceBar) (s1, s2 domain.Opt) {
	if len(bars) < 2 {
		return domain.None(), domain.None()
	}
	prev := bars[len(bars)-2]
	pivot := (prev.High + prev.Low + prev.Close) / 3.0
	return domain.Some(2*pivot - prev.High), domain.Some(pivot - (prev.High - prev.Low))
}
