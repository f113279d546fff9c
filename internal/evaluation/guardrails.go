package evaluation

import "fmt"

// GuardrailConfig sets the minimum scores an analyzer change must keep.
type GuardrailConfig struct {
	MinTypeAccuracy    float64
	MinClusterAccuracy float64
	MinEntityRecall    float64
}

// DefaultGuardrails matches the accuracy of the shipped keyword rules on the
// bundled golden set.
func DefaultGuardrails() GuardrailConfig {
	return GuardrailConfig{
		MinTypeAccuracy:    0.9,
		MinClusterAccuracy: 0.8,
		MinEntityRecall:    0.8,
	}
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Violations lists every threshold the summary falls below.
func (g *Guardrails) Violations(s *EvalSummary) []string {
	var out []string
	check := func(name string, got, min float64) {
		if got < min {
			out = append(out, fmt.Sprintf("%s %.3f below minimum %.3f", name, got, min))
		}
	}
	check("query type accuracy", s.TypeAccuracy, g.config.MinTypeAccuracy)
	check("topic cluster accuracy", s.ClusterAccuracy, g.config.MinClusterAccuracy)
	check("entity recall", s.AvgEntityRecall, g.config.MinEntityRecall)
	return out
}
