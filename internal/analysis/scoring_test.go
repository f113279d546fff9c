package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateQueryComplexity(t *testing.T) {
	tests := []struct {
		query string
		want  float64
	}{
		{"", 0},
		{"   ", 0},
		{"Why", 0.55},
		{"What year did Central High integrate?", 0.3},
		{"How did the integration crisis impact the relationship between the two schools and the community", 0.63},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateQueryComplexity(tt.query), 1e-9)
		})
	}
}

func TestCalculateQueryComplexity_InUnitRange(t *testing.T) {
	queries := []string{
		"why why why why why why why why why why why why why why",
		"compare",
		"a b c d e f g h i j k l m n o p q r s t u v w x y z",
		"Explain the cause and effect of the crisis",
	}
	for _, q := range queries {
		c := CalculateQueryComplexity(q)
		assert.GreaterOrEqual(t, c, 0.0, q)
		assert.LessOrEqual(t, c, 1.0, q)
	}
}

func TestIsReformulation(t *testing.T) {
	t.Run("identical non-empty queries", func(t *testing.T) {
		for _, q := range []string{"a", "Who was Daisy Bates", "Tell me about Dunbar High School teachers"} {
			assert.True(t, IsReformulation(q, q), q)
		}
	})

	t.Run("partial overlap with different length", func(t *testing.T) {
		assert.True(t, IsReformulation("Daisy Bates and the NAACP", "Daisy Bates and the NAACP in Arkansas during the crisis years"))
	})

	t.Run("unrelated queries of similar length", func(t *testing.T) {
		assert.True(t, IsReformulation("Who was Daisy Bates", "Where is Dunbar now"))
	})

	t.Run("unrelated queries of different length", func(t *testing.T) {
		assert.False(t, IsReformulation("Who was Daisy Bates", "Tell me about the history of Dunbar High School and its famous teachers"))
	})

	t.Run("empty previous query", func(t *testing.T) {
		assert.False(t, IsReformulation("", "Who was Daisy Bates"))
		assert.False(t, IsReformulation("Who was Daisy Bates", ""))
	})
}

func TestJaccard_EmptyUnion(t *testing.T) {
	assert.Equal(t, 0.0, jaccard(wordSet(""), wordSet("  ")))
}

func TestCalculateExplorationDepth(t *testing.T) {
	assert.Equal(t, 0.0, CalculateExplorationDepth(nil))
	assert.Equal(t, 0.0, CalculateExplorationDepth([]string{}))

	// One entity: 1/3 plus length/20.
	assert.InDelta(t, 0.98, CalculateExplorationDepth([]string{"Jefferson Ave"}), 1e-9)
	assert.InDelta(t, 1.08, CalculateExplorationDepth([]string{"Abraham Lincoln"}), 1e-9)

	assert.InDelta(t, 1.95, CalculateExplorationDepth([]string{"Little Rock Central High School", "1957", "Dr. Martin Luther King"}), 1e-9)
}

func TestCalculateComplexityProgression(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single value", []float64{0.5}, 0},
		{"linear increase", []float64{0.2, 0.4, 0.6}, 0.2},
		{"flat", []float64{0.5, 0.5, 0.5}, 0},
		{"decrease", []float64{0.6, 0.4}, -0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateComplexityProgression(tt.values), 1e-9)
		})
	}
}
