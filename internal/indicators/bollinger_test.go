package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerConstantPrices(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 50
	}
	bb := computeBollinger(prices, 20, 2)

	upper, ok := bb.Upper.Value()
	require.True(t, ok)
	mid, _ := bb.Mid.Value()
	lower, _ := bb.Lower.Value()
	assert.InDelta(t, 50.0, upper, 1e-9)
	assert.InDelta(t, 50.0, mid, 1e-9)
	assert.InDelta(t, 50.0, lower, 1e-9)
}

func TestBollingerInsufficientData(t *testing.T) {
	bb := computeBollinger([]float64{1, 2, 3}, 20, 2)
	assert.False(t, bb.Upper.Valid())
	assert.Empty(t, bb.Widths)
}

func TestSqueezeDetectedAtNarrowWidth(t *testing.T) {
	// 20 trailing widths around 0.10, current width far below all of them:
	// 12th-percentile territory.
	widths := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		widths = append(widths, 0.10+float64(i)*0.001)
	}
	widths = append(widths, 0.02)

	sq := detectSqueeze(widths, 20, 15)
	require.True(t, sq.Valid)
	assert.True(t, sq.Detected)
	assert.InDelta(t, 1.0, sq.Strength, 1e-9, "every trailing day was wider")
	assert.InDelta(t, 0.0, sq.WidthPercentile, 1e-9)
}

func TestSqueezeNotDetectedAtWideWidth(t *testing.T) {
	widths := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		widths = append(widths, 0.05+float64(i)*0.001)
	}
	widths = append(widths, 0.20)

	sq := detectSqueeze(widths, 20, 15)
	require.True(t, sq.Valid)
	assert.False(t, sq.Detected)
	assert.InDelta(t, 0.0, sq.Strength, 1e-9)
}

func TestSqueezeNeedsFullWindow(t *testing.T) {
	sq := detectSqueeze([]float64{0.1, 0.2, 0.05}, 20, 15)
	assert.False(t, sq.Valid)
	assert.False(t, sq.Detected)
}

func TestSqueezeMidDistribution(t *testing.T) {
	widths := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		widths = append(widths, 0.10+float64(i)*0.01) // 0.10 .. 0.29
	}
	widths = append(widths, 0.195) // wider than ~10, narrower than ~10

	sq := detectSqueeze(widths, 20, 15)
	require.True(t, sq.Valid)
	assert.False(t, sq.Detected)
	assert.InDelta(t, 0.50, sq.Strength, 0.06)
}
