package analysis

import (
	"math"
	"strings"
)

var polarity = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0, "wonderful": 1.0,
	"interesting": 0.5, "fascinating": 0.7, "helpful": 0.6, "love": 0.5, "like": 0.3, "thanks": 0.4,
	"thank": 0.4, "brave": 0.6, "proud": 0.8, "inspiring": 0.7, "happy": 0.8, "cool": 0.35,
	"best": 1.0, "nice": 0.6, "important": 0.4, "courageous": 0.7, "remarkable": 0.75,
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "hate": -0.8, "sad": -0.5,
	"wrong": -0.5, "angry": -0.5, "unfair": -0.5, "violent": -0.8, "cruel": -1.0, "scary": -0.5,
	"confusing": -0.3, "boring": -1.0, "useless": -0.5, "worst": -1.0, "difficult": -0.5,
	"hostile": -0.6, "unjust": -0.5, "frightening": -0.6, "poor": -0.4,
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "isn't": {}, "wasn't": {}, "don't": {}, "didn't": {}, "aren't": {},
}

const negationFactor = -0.5

// AnalyzeSentiment returns the mean polarity of the opinion words in text,
// in [-1, 1]. A negator flips and dampens the word that follows it. Text
// without opinion words scores 0.
func AnalyzeSentiment(text string) float64 {
	var sum float64
	var count int
	negate := false

	for _, raw := range strings.Fields(strings.ToLower(text)) {
		token := trimPunct(raw)
		if _, ok := negators[token]; ok {
			negate = true
			continue
		}
		if p, ok := polarity[token]; ok {
			if negate {
				p *= negationFactor
			}
			sum += p
			count++
		}
		negate = false
	}

	if count == 0 {
		return 0
	}
	return round2(math.Max(-1, math.Min(1, sum/float64(count))))
}
