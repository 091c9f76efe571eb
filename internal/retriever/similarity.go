package retriever

import "gonum.org/v1/gonum/floats"

// Cosine returns the cosine similarity of two equal-length vectors, or 0
// when either vector is empty, zero, or the lengths differ. Similarity is
// in [-1,1]; retrieval thresholds treat anything below MinSimilarity as
// unrelated.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
