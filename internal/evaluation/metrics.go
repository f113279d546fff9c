package evaluation

import "strings"

// RecallAtK computes Recall@K: the fraction of relevant items found in the
// top-K retrieved items, compared case-insensitively. K <= 0 means all.
// Returns 1.0 when nothing is relevant and nothing was retrieved, 0.0 when
// only relevant is empty.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	topK := truncate(retrieved, k)
	if len(relevant) == 0 {
		if len(topK) == 0 {
			return 1.0
		}
		return 0.0
	}

	found := 0
	got := toSet(topK)
	for _, r := range relevant {
		if _, ok := got[strings.ToLower(r)]; ok {
			found++
		}
	}

	return float64(found) / float64(len(relevant))
}

// MRRAtK computes the reciprocal of the rank of the first relevant item in
// the top-K retrieved items. Returns 0.0 if no relevant item is found.
func MRRAtK(relevant, retrieved []string, k int) float64 {
	if len(relevant) == 0 || len(retrieved) == 0 {
		return 0.0
	}

	want := toSet(relevant)
	for i, r := range truncate(retrieved, k) {
		if _, ok := want[strings.ToLower(r)]; ok {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}

// Accuracy is correct/total, or 0 for an empty set.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(correct) / float64(total)
}

func truncate(items []string, k int) []string {
	if k > 0 && k < len(items) {
		return items[:k]
	}
	return items
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[strings.ToLower(it)] = struct{}{}
	}
	return set
}
