package indicators

import "github.com/quantrun/quantrun/internal/domain"

// swing is a local price extreme with the RSI reading at the same bar.
type swing struct {
	index int
	price float64
	rsi   float64
}

// findSwings locates fractal lows and highs (strictly below/above the two
// neighbours on each side) inside the trailing window. Only bars with a
// valid RSI qualify, since divergence compares price swings against RSI.
func findSwings(prices []float64, rsi []domain.Opt, window int) (lows, highs []swing) {
	start := len(prices) - window
	if start < 2 {
		start = 2
	}
	for i := start; i < len(prices)-2; i++ {
		r, ok := rsi[i].Value()
		if !ok {
			continue
		}
		p := prices[i]
		if p < prices[i-1] && p < prices[i-2] && p < prices[i+1] && p < prices[i+2] {
			lows = append(lows, swing{index: i, price: p, rsi: r})
		}
		if p > prices[i-1] && p > prices[i-2] && p > prices[i+1] && p > prices[i+2] {
			highs = append(highs, swing{index: i, price: p, rsi: r})
		}
	}
	return lows, highs
}

// detectDivergence scans the trailing window for price/RSI disagreement.
// Bullish: price sets a lower low while RSI sets a higher low. Bearish is
// the mirror on swing highs. Strength normalizes the size of the price move
// against the opposing RSI move and is capped to [0,1].
func detectDivergence(prices []float64, rsi []domain.Opt, window, minSwings int) Divergence {
	if len(prices) < window || window < 5 {
		return Divergence{}
	}
	lows, highs := findSwings(prices, rsi, window)
	if len(lows)+len(highs) < minSwings {
		return Divergence{}
	}

	div := Divergence{Valid: true}

	if len(lows) >= 2 {
		prev, last := lows[len(lows)-2], lows[len(lows)-1]
		if last.price < prev.price && last.rsi > prev.rsi {
			declinePct := (prev.price - last.price) / prev.price * 100.0
			rsiGain := last.rsi - prev.rsi
			div.Bullish = true
			div.Strength = divergenceStrength(declinePct, rsiGain)
		}
	}
	if !div.Bullish && len(highs) >= 2 {
		prev, last := highs[len(highs)-2], highs[len(highs)-1]
		if last.price > prev.price && last.rsi < prev.rsi {
			advancePct := (last.price - prev.price) / prev.price * 100.0
			rsiLoss := prev.rsi - last.rsi
			div.Bearish = true
			div.Strength = divergenceStrength(advancePct, rsiLoss)
		}
	}
	return div
}

// divergenceStrength maps a 5% price move with a 10-point opposing RSI move
// to full strength.
func divergenceStrength(movePct, rsiDelta float64) float64 {
	s := 0.5*(movePct/5.0) + 0.5*(rsiDelta/10.0)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
