package indicators

import "github.com/quantrun/quantrun/internal/domain"

// RSI thresholds used across the engine.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// rsiSeries computes the Wilder-smoothed RSI for every bar that has enough
// history. The returned slice is aligned with prices: entries before
// period+1 bars of history are invalid Opts.
func rsiSeries(prices []float64, period int) []domain.Opt {
	out := make([]domain.Opt, len(prices))
	if len(prices) < period+1 {
		return out
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Seed with a simple average over the first period, then Wilder EMA.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = domain.Some(rsiFromAverages(avgGain, avgLoss))

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(prices); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
		out[i] = domain.Some(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// latestRSI computes the RSI for the most recent bar only.
func latestRSI(prices []float64, period int) domain.Opt {
	series := rsiSeries(prices, period)
	if len(series) == 0 {
		return domain.None()
	}
	return series[len(series)-1]
}
