package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdersByComposite(t *testing.T) {
	scores := []PriorityScore{
		{Ticker: "LOW", Composite: 40},
		{Ticker: "HIGH", Composite: 90},
		{Ticker: "MID", Composite: 60},
	}
	ranked := Rank(scores)
	require.Len(t, ranked, 3)
	assert.Equal(t, "HIGH", ranked[0].Ticker)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "MID", ranked[1].Ticker)
	assert.Equal(t, "LOW", ranked[2].Ticker)
	assert.Equal(t, 3, ranked[2].Rank)
}

func TestRankTieBreakByTechnical(t *testing.T) {
	// Equal composites: the higher technical sub-score wins the tie, so B
	// ranks ahead of A despite alphabetical order.
	scores := []PriorityScore{
		{Ticker: "A", Composite: 70, Technical: 60},
		{Ticker: "B", Composite: 70, Technical: 80},
	}
	ranked := Rank(scores)
	assert.Equal(t, "B", ranked[0].Ticker)
	assert.Equal(t, "A", ranked[1].Ticker)
}

func TestRankFullTieFallsBackToTicker(t *testing.T) {
	scores := []PriorityScore{
		{Ticker: "ZED", Composite: 70, Technical: 60},
		{Ticker: "ABC", Composite: 70, Technical: 60},
	}
	ranked := Rank(scores)
	assert.Equal(t, "ABC", ranked[0].Ticker)
	assert.Equal(t, "ZED", ranked[1].Ticker)
}

func TestRankInputOrderIndependent(t *testing.T) {
	forward := Rank([]PriorityScore{
		{Ticker: "A", Composite: 70, Technical: 60},
		{Ticker: "B", Composite: 70, Technical: 80},
		{Ticker: "C", Composite: 90},
	})
	reversed := Rank([]PriorityScore{
		{Ticker: "C", Composite: 90},
		{Ticker: "B", Composite: 70, Technical: 80},
		{Ticker: "A", Composite: 70, Technical: 60},
	})
	require.Len(t, forward, 3)
	for i := range forward {
		assert.Equal(t, forward[i].Ticker, reversed[i].Ticker)
		assert.Equal(t, forward[i].Rank, reversed[i].Rank)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	scores := []PriorityScore{
		{Ticker: "A", Composite: 40},
		{Ticker: "B", Composite: 90},
	}
	_ = Rank(scores)
	assert.Equal(t, "A", scores[0].Ticker)
	assert.Zero(t, scores[0].Rank)
}
