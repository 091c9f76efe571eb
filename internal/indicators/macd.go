package indicators

import "github.com/quantrun/quantrun/internal/domain"

// emaSeries computes the exponential moving average with the conventional
// 2/(n+1) smoothing, seeded with an SMA over the first period bars. Entries
// before the seed is complete are invalid.
func emaSeries(values []float64, period int) []domain.Opt {
	out := make([]domain.Opt, len(values))
	if len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	ema := seed / float64(period)
	out[period-1] = domain.Some(ema)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = values[i]*k + ema*(1-k)
		out[i] = domain.Some(ema)
	}
	return out
}

// macdResult carries the latest MACD reading plus cross state.
type macdResult struct {
	MACD         domain.Opt
	Signal       domain.Opt
	Hist         domain.Opt
	BullishCross bool
	BearishCross bool
}

// computeMACD builds the MACD line (fast EMA - slow EMA), its signal EMA and
// the histogram. A crossover is reported only for the latest bar: bullish
// when the MACD line moved from at-or-below the signal to above it.
func computeMACD(prices []float64, fast, slow, signal int) macdResult {
	var res macdResult
	if len(prices) < slow {
		return res
	}

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)

	macdLine := make([]float64, 0, len(prices)-slow+1)
	for i := slow - 1; i < len(prices); i++ {
		f, _ := fastEMA[i].Value()
		s, _ := slowEMA[i].Value()
		macdLine = append(macdLine, f-s)
	}
	res.MACD = domain.Some(macdLine[len(macdLine)-1])

	if len(macdLine) < signal {
		return res
	}
	signalSeries := emaSeries(macdLine, signal)
	sigNow, _ := signalSeries[len(signalSeries)-1].Value()
	macdNow := macdLine[len(macdLine)-1]
	res.Signal = domain.Some(sigNow)
	res.Hist = domain.Some(macdNow - sigNow)

	if len(macdLine) >= signal+1 {
		sigPrev, prevOK := signalSeries[len(signalSeries)-2].Value()
		macdPrev := macdLine[len(macdLine)-2]
		if prevOK {
			res.BullishCross = macdPrev <= sigPrev && macdNow > sigNow
			res.BearishCross = macdPrev >= sigPrev && macdNow < sigNow
		}
	}
	return res
}
