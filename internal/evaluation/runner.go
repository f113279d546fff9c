package evaluation

import (
	"context"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/analysis"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// AnalyzeFunc derives features from one query.
type AnalyzeFunc func(query string) analysis.QueryFeatures

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	analyze AnalyzeFunc
}

// NewRunner evaluates analyze, or analysis.AnalyzeQuery when it is nil.
func NewRunner(analyze AnalyzeFunc) *Runner {
	if analyze == nil {
		analyze = analysis.AnalyzeQuery
	}
	return &Runner{analyze: analyze}
}

// Run scores every query. It stops early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByType:       make(map[entities.QueryType]*TypeSummary),
	}

	var typeCorrect, clusterCorrect int
	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		features := r.analyze(gq.Query)
		result := EvalResult{
			QueryID:          gq.ID,
			Query:            gq.Query,
			ExpectedType:     gq.QueryType,
			PredictedType:    features.QueryType,
			ExpectedCluster:  gq.TopicCluster,
			PredictedCluster: features.TopicCluster,
			EntityRecall:     RecallAtK(gq.ExpectedEntities, features.HistoricalEntities, 0),
			TopicMRR:         MRRAtK(gq.ExpectedTopics, features.Topics, 0),
			Latency:          time.Since(start),
		}

		if result.TypeCorrect() {
			typeCorrect++
		} else {
			summary.Misclassified = append(summary.Misclassified, result)
		}
		if result.ClusterCorrect() {
			clusterCorrect++
		}
		r.updateSummary(summary, result)
	}

	summary.TypeAccuracy = Accuracy(typeCorrect, summary.TotalQueries)
	summary.ClusterAccuracy = Accuracy(clusterCorrect, summary.TotalQueries)
	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgEntityRecall += res.EntityRecall
	s.AvgTopicMRR += res.TopicMRR
	s.AvgLatency += res.Latency

	ts, ok := s.ByType[res.ExpectedType]
	if !ok {
		ts = &TypeSummary{}
		s.ByType[res.ExpectedType] = ts
	}
	ts.Count++
	if res.TypeCorrect() {
		ts.Correct++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgEntityRecall /= n
		s.AvgTopicMRR /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, ts := range s.ByType {
		ts.Accuracy = Accuracy(ts.Correct, ts.Count)
	}
}
