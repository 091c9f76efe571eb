package retriever

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/quantrun/quantrun/internal/domain"
)

// HashEmbedder is a deterministic local embedder: token feature hashing
// into a fixed-dimension unit vector. It stands in for the remote embedding
// collaborator in the CLI and in tests; identical summaries always embed
// identically, which keeps retrieval reproducible offline.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder builds an embedder of the given dimension.
func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", domain.ErrInvalidConfig)
	}
	return &HashEmbedder{dim: dim}, nil
}

// Dim returns the embedding dimension.
func (h *HashEmbedder) Dim() int { return h.dim }

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, h.dim)
	for _, token := range strings.Fields(text) {
		hasher := fnv.New64a()
		hasher.Write([]byte(token))
		sum := hasher.Sum64()
		idx := int(sum % uint64(h.dim))
		// Sign bit from a higher hash bit keeps collisions from only
		// accumulating positively.
		if sum&(1<<63) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	norm := floats.Norm(vec, 2)
	if norm > 0 && !math.IsNaN(norm) {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}
