package scoring

import "sort"

// Rank assigns 1-based ranks over a completed batch of scores and returns a
// new slice; the input is never mutated. Ordering is descending composite,
// ties broken by higher technical sub-score, then alphabetically by ticker,
// so a batch always ranks the same way regardless of input order.
//
// Rank is the single synchronization point of a batch run: every score must
// already be computed, because rank is a property of the whole batch.
func Rank(scores []PriorityScore) []PriorityScore {
	ranked := make([]PriorityScore, len(scores))
	copy(ranked, scores)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		if ranked[i].Technical != ranked[j].Technical {
			return ranked[i].Technical > ranked[j].Technical
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
