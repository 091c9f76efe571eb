// Package indicators turns raw OHLCV history into a derived indicator
// snapshot and pattern signals. Every computation degrades gracefully:
// an indicator that cannot be computed from the available bars is reported
// as missing, never as an error, so downstream scoring can proceed on
// partial data.
package indicators

import (
	"fmt"

	"github.com/quantrun/quantrun/internal/domain"
)

// Engine computes indicator snapshots. It is stateless across calls; the
// same bars always produce the same snapshot.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration eagerly and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("indicator engine: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute derives the full indicator snapshot from a chronological bar
// series, using at most lookbackDays of trailing history (0 means all).
// Indicators whose minimum history is not met come back as invalid fields.
func (e *Engine) Compute(bars []domain.PriceBar, lookbackDays int) Snapshot {
	if lookbackDays > 0 && len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	if len(bars) == 0 {
		return Snapshot{}
	}

	closes := domain.Closes(bars)
	volumes := domain.Volumes(bars)
	last := bars[len(bars)-1]

	snap := Snapshot{
		AsOf:     last.Date,
		Close:    last.Close,
		BarCount: len(bars),
	}

	rsi := rsiSeries(closes, e.cfg.RSIPeriod)
	snap.RSI = rsi[len(rsi)-1]

	macd := computeMACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	snap.MACD = macd.MACD
	snap.MACDSignal = macd.Signal
	snap.MACDHist = macd.Hist
	snap.BullishCross = macd.BullishCross
	snap.BearishCross = macd.BearishCross

	bb := computeBollinger(closes, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
	snap.BollingerUpper = bb.Upper
	snap.BollingerMid = bb.Mid
	snap.BollingerLower = bb.Lower
	snap.Squeeze = detectSqueeze(bb.Widths, e.cfg.SqueezeWindow, e.cfg.SqueezePercentile)

	snap.MA20 = latestSMA(closes, 20)
	snap.MA50 = latestSMA(closes, 50)
	snap.MA200 = latestSMA(closes, 200)

	snap.VolumeRatio = volumeRatio(volumes, e.cfg.VolumeAvgPeriod)
	snap.VWAP = rollingVWAP(bars, e.cfg.VWAPPeriod)
	snap.Return20d = trailingReturn(closes, e.cfg.MomentumPeriod)

	snap.Fib = computeFib(bars, e.cfg.FibLookbackDays)
	snap.Divergence = detectDivergence(closes, rsi, e.cfg.DivergenceWindow, e.cfg.DivergenceMinSwings)
	snap.PivotSupport1, snap.PivotSupport2 = pivotSupports(bars)

	return snap
}
