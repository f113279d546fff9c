package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSentiment(t *testing.T) {
	assert.InDelta(t, 0.8, AnalyzeSentiment("This is great!"), 1e-9)
	assert.InDelta(t, -0.4, AnalyzeSentiment("This is not great"), 1e-9)
	assert.InDelta(t, 0.0, AnalyzeSentiment("good and bad"), 1e-9)
	assert.Equal(t, 0.0, AnalyzeSentiment("The history lesson"))
	assert.Equal(t, 0.0, AnalyzeSentiment(""))
}

func TestAnalyzeSentiment_Bounded(t *testing.T) {
	for _, text := range []string{"awful terrible horrible", "excellent awesome best", "not not bad"} {
		s := AnalyzeSentiment(text)
		assert.GreaterOrEqual(t, s, -1.0, text)
		assert.LessOrEqual(t, s, 1.0, text)
	}
}

func TestIsFallback(t *testing.T) {
	assert.True(t, IsFallback("I'm sorry, I don't have information on that."))
	assert.False(t, IsFallback("Dunbar was renowned for its teachers."))
	assert.False(t, IsSuccessful("I'm sorry, I don't have information on that."))
	assert.False(t, IsSuccessful("   "))
	assert.True(t, IsSuccessful("Dunbar was renowned for its teachers."))
}

func TestAnalyzeQuery(t *testing.T) {
	f := AnalyzeQuery("What year did Central High integrate?")

	assert.Equal(t, "temporal_question", string(f.QueryType))
	assert.Equal(t, []string{"integrate?", "central", "what"}, f.Topics)
	assert.Equal(t, []string{"Central High"}, f.HistoricalEntities)
	assert.Equal(t, 37, f.Length)
	assert.InDelta(t, 0.3, f.Complexity, 1e-9)
}

func TestSplitEntities(t *testing.T) {
	figures, events := SplitEntities([]string{"1957", "Central High", "Dr. Martin Luther King"})

	assert.Equal(t, []string{"Dr. Martin Luther King"}, figures)
	assert.Equal(t, []string{"1957"}, events)

	figures, events = SplitEntities(nil)
	assert.Empty(t, figures)
	assert.Empty(t, events)
}
