package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/floats"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
}

func TestCosineDegenerateInputs(t *testing.T) {
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 2}))
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e, err := NewHashEmbedder(64)
	require.NoError(t, err)

	first, err := e.Embed(context.Background(), "rsi=28.5 sector=energy squeeze=true")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "rsi=28.5 sector=energy squeeze=true")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	// Non-empty inputs embed to unit vectors.
	assert.InDelta(t, 1.0, floats.Norm(first, 2), 1e-9)
}

func TestHashEmbedderDiscriminates(t *testing.T) {
	e, err := NewHashEmbedder(64)
	require.NoError(t, err)

	a, err := e.Embed(context.Background(), "ticker=ACME rsi=28.5 macd_hist=0.3 squeeze=true")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "ticker=ACME rsi=28.5 macd_hist=0.3 squeeze=false")
	require.NoError(t, err)
	c, err := e.Embed(context.Background(), "ticker=ZZZZ rsi=71.0 macd_hist=-0.8 squeeze=false")
	require.NoError(t, err)

	// One changed token stays closer than a fully different situation.
	assert.Greater(t, Cosine(a, b), Cosine(a, c))
}

func TestHashEmbedderCancelledContext(t *testing.T) {
	e, err := NewHashEmbedder(8)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Embed(ctx, "anything")
	assert.Error(t, err)
}

func TestHashEmbedderInvalidDim(t *testing.T) {
	_, err := NewHashEmbedder(0)
	assert.Error(t, err)
}
