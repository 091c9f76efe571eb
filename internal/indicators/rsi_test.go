package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSIInsufficientData(t *testing.T) {
	prices := []float64{10, 11, 12}
	got := latestRSI(prices, 14)
	assert.False(t, got.Valid())
}

func TestRSIAllGains(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	rsi, ok := latestRSI(prices, 14).Value()
	require.True(t, ok)
	assert.InDelta(t, 100.0, rsi, 1e-9)
}

func TestRSIAllLosses(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}
	rsi, ok := latestRSI(prices, 14).Value()
	require.True(t, ok)
	assert.InDelta(t, 0.0, rsi, 1e-9)
}

func TestRSIMixedStaysInBand(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		if i%2 == 0 {
			prices[i] = 100 + float64(i%7)
		} else {
			prices[i] = 99 - float64(i%5)
		}
	}
	rsi, ok := latestRSI(prices, 14).Value()
	require.True(t, ok)
	assert.Greater(t, rsi, 0.0)
	assert.Less(t, rsi, 100.0)
}

func TestRSISeriesAlignment(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 50 + float64(i)
	}
	series := rsiSeries(prices, 14)
	require.Len(t, series, 20)
	for i := 0; i < 14; i++ {
		assert.False(t, series[i].Valid(), "index %d should be invalid", i)
	}
	for i := 14; i < 20; i++ {
		assert.True(t, series[i].Valid(), "index %d should be valid", i)
	}
}
