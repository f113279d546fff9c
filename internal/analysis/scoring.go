package analysis

import (
	"math"
	"strings"
	"unicode/utf8"
)

var complexityIndicators = map[string]struct{}{
	"compare": {}, "relationship": {}, "influence": {}, "impact": {}, "cause": {}, "effect": {},
	"why": {}, "how": {}, "analysis": {}, "interpret": {}, "evaluate": {}, "between": {},
}

const complexityWordCap = 10.0

// CalculateQueryComplexity averages a length score (saturating at ten words)
// with the share of words drawn from the complexity vocabulary.
func CalculateQueryComplexity(query string) float64 {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return 0
	}

	lengthScore := math.Min(float64(len(words))/complexityWordCap, 1)

	hits := 0
	for _, w := range words {
		if _, ok := complexityIndicators[trimPunct(w)]; ok {
			hits++
		}
	}
	indicatorScore := float64(hits) / float64(len(words))

	return round2((lengthScore + indicatorScore) / 2)
}

// IsReformulation decides whether curr rephrases prev. Either a partial word
// overlap or a similar length is enough, so two unrelated queries of about
// the same length also count.
func IsReformulation(prev, curr string) bool {
	if strings.TrimSpace(prev) == "" || strings.TrimSpace(curr) == "" {
		return false
	}

	similarity := jaccard(wordSet(prev), wordSet(curr))

	a, b := utf8.RuneCountInString(prev), utf8.RuneCountInString(curr)
	lengthDiff := math.Abs(float64(a-b)) / float64(max(a, b))

	return (similarity >= 0.3 && similarity <= 0.8) || lengthDiff < 0.3
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// CalculateExplorationDepth scores a set of entities on breadth (saturating
// at three) plus specificity (average length, saturating at twenty runes).
func CalculateExplorationDepth(entities []string) float64 {
	if len(entities) == 0 {
		return 0
	}
	total := 0
	for _, e := range entities {
		total += utf8.RuneCountInString(e)
	}
	avgLen := float64(total) / float64(len(entities))

	return round2(math.Min(float64(len(entities))/3, 1) + math.Min(avgLen/20, 1))
}

// CalculateComplexityProgression is the least-squares slope of complexity
// against query index.
func CalculateComplexityProgression(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	// Unreachable for index abscissae, kept so the function stays total.
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return round2((n*sumXY - sumX*sumY) / denominator)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
