package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all found", []string{"1957", "Central High"}, []string{"1957", "Central High", "Little Rock"}, 0, 1.0},
		{"half found", []string{"1957", "Daisy Bates"}, []string{"1957"}, 0, 0.5},
		{"case insensitive", []string{"central high"}, []string{"Central High"}, 0, 1.0},
		{"cut at k", []string{"a", "b", "c"}, []string{"a", "b", "x", "y", "c"}, 3, 2.0 / 3.0},
		{"k beyond retrieved", []string{"a", "b"}, []string{"a"}, 10, 0.5},
		{"nothing retrieved", []string{"a"}, nil, 0, 0.0},
		{"nothing expected, nothing found", nil, nil, 0, 1.0},
		{"nothing expected, spurious match", nil, []string{"Little Rock"}, 0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecallAtK(tt.relevant, tt.retrieved, tt.k); !almostEqual(got, tt.want) {
				t.Errorf("RecallAtK() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first", []string{"integration"}, []string{"integration", "central"}, 0, 1.0},
		{"third", []string{"a"}, []string{"x", "y", "a", "z"}, 0, 1.0 / 3.0},
		{"first of several relevant", []string{"a", "b", "c"}, []string{"x", "b", "a"}, 0, 0.5},
		{"beyond k", []string{"a"}, []string{"x", "y", "a"}, 2, 0.0},
		{"empty relevant", nil, []string{"a"}, 0, 0.0},
		{"empty retrieved", []string{"a"}, nil, 0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MRRAtK(tt.relevant, tt.retrieved, tt.k); !almostEqual(got, tt.want) {
				t.Errorf("MRRAtK() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	if got := Accuracy(3, 4); !almostEqual(got, 0.75) {
		t.Errorf("expected 0.75, got %f", got)
	}
	if got := Accuracy(0, 0); got != 0 {
		t.Errorf("expected 0 for empty set, got %f", got)
	}
}
