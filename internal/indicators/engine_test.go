package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrun/quantrun/internal/domain"
)

// genBars builds a deterministic synthetic series: gentle uptrend with a
// sine wobble and steady volume. Enough structure for every indicator to
// produce a value once the series is long enough.
func genBars(n int, startPrice float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, n)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	price := startPrice
	for i := 0; i < n; i++ {
		drift := 0.15 + 2.0*math.Sin(float64(i)/7.0)
		price += drift
		if price < 1 {
			price = 1
		}
		bars[i] = domain.PriceBar{
			Date:   day,
			Open:   price - 0.5,
			High:   price + 1.2,
			Low:    price - 1.3,
			Close:  price,
			Volume: 1_000_000 + float64(i%5)*50_000,
		}
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Saturday {
			day = day.AddDate(0, 0, 2)
		}
	}
	return bars
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return eng
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MACDSlow = cfg.MACDFast - 1
	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestComputeFullHistory(t *testing.T) {
	eng := newTestEngine(t)
	bars := genBars(260, 100)

	snap := eng.Compute(bars, 0)

	assert.Equal(t, bars[len(bars)-1].Date, snap.AsOf)
	assert.Equal(t, bars[len(bars)-1].Close, snap.Close)

	rsi, ok := snap.RSI.Value()
	require.True(t, ok)
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)

	assert.True(t, snap.MACD.Valid())
	assert.True(t, snap.MACDSignal.Valid())
	assert.True(t, snap.BollingerUpper.Valid())
	assert.True(t, snap.MA20.Valid())
	assert.True(t, snap.MA50.Valid())
	assert.True(t, snap.MA200.Valid())
	assert.True(t, snap.VolumeRatio.Valid())
	assert.True(t, snap.VWAP.Valid())
	assert.True(t, snap.Fib.Valid)
	assert.True(t, snap.Squeeze.Valid)

	upper, _ := snap.BollingerUpper.Value()
	lower, _ := snap.BollingerLower.Value()
	mid, _ := snap.BollingerMid.Value()
	assert.Greater(t, upper, mid)
	assert.Greater(t, mid, lower)
}

func TestComputeInsufficientHistoryDegrades(t *testing.T) {
	eng := newTestEngine(t)
	bars := genBars(10, 100)

	snap := eng.Compute(bars, 0)

	// Ten bars cannot feed a 20-period Bollinger or a 14-period RSI; the
	// fields go missing instead of the call failing.
	assert.False(t, snap.BollingerUpper.Valid())
	assert.False(t, snap.BollingerMid.Valid())
	assert.False(t, snap.BollingerLower.Valid())
	assert.False(t, snap.RSI.Valid())
	assert.False(t, snap.MACD.Valid())
	assert.False(t, snap.MA20.Valid())
	assert.False(t, snap.Fib.Valid)
	assert.False(t, snap.Squeeze.Valid)
	assert.False(t, snap.Squeeze.Detected)
	assert.Equal(t, 10, snap.BarCount)

	// Pivots only need two bars.
	assert.True(t, snap.PivotSupport1.Valid())
}

func TestComputeEmptySeries(t *testing.T) {
	eng := newTestEngine(t)
	snap := eng.Compute(nil, 0)
	assert.Equal(t, 0, snap.BarCount)
	assert.False(t, snap.RSI.Valid())
}

func TestComputeDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	bars := genBars(260, 100)

	first := eng.Compute(bars, 250)
	second := eng.Compute(bars, 250)

	assert.True(t, reflect.DeepEqual(first, second), "snapshots must be bit-identical across calls")
}

func TestComputeLookbackTrim(t *testing.T) {
	eng := newTestEngine(t)
	bars := genBars(300, 100)

	trimmed := eng.Compute(bars, 60)
	assert.Equal(t, 60, trimmed.BarCount)
	// MA200 cannot come from 60 bars.
	assert.False(t, trimmed.MA200.Valid())
	assert.True(t, trimmed.MA50.Valid())
}
