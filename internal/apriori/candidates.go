// Package apriori implements level-wise frequent itemset mining over sketch
// intersections and association rule generation from the mined table.
package apriori

import (
	"github.com/ppiankov/sketchmine/internal/model"
)

// GenerateCandidates joins retained level-(k-1) itemsets that share their
// first k-2 items and prunes every candidate with a (k-1)-subset that was not
// retained. The result is sorted and free of duplicates.
func GenerateCandidates(retained []model.Itemset) []model.Itemset {
	if len(retained) == 0 {
		return nil
	}

	sorted := make([]model.Itemset, 0, len(retained))
	known := make(map[string]bool, len(retained))
	for _, set := range retained {
		key := set.Key()
		if known[key] {
			continue
		}
		known[key] = true
		sorted = append(sorted, set)
	}
	model.SortItemsets(sorted)

	var candidates []model.Itemset
	for i := 0; i < len(sorted); i++ {
		a := sorted[i]
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if !samePrefix(a, b) {
				// sorted order: no later itemset shares a's prefix either
				break
			}
			candidate := make(model.Itemset, len(a)+1)
			copy(candidate, a)
			candidate[len(a)] = b[len(b)-1]
			if allSubsetsKnown(candidate, known) {
				candidates = append(candidates, candidate)
			}
		}
	}
	return candidates
}

// samePrefix reports whether a and b agree on all but their last item
func samePrefix(a, b model.Itemset) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsKnown checks downward closure. The two subsets that produced the
// candidate are known already, so only subsets dropping an earlier item are
// looked up.
func allSubsetsKnown(candidate model.Itemset, known map[string]bool) bool {
	if len(candidate) <= 2 {
		return true
	}
	subset := make(model.Itemset, len(candidate)-1)
	for skip := 0; skip < len(candidate)-2; skip++ {
		subset = subset[:0]
		for i, item := range candidate {
			if i != skip {
				subset = append(subset, item)
			}
		}
		if !known[subset.Key()] {
			return false
		}
	}
	return true
}
