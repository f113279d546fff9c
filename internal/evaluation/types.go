// Package evaluation scores the rule-based query analyzer against a labeled
// set of golden queries.
package evaluation

import (
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// GoldenQuery represents a labeled test query with expected outcomes.
type GoldenQuery struct {
	ID               string                `json:"id"`
	Query            string                `json:"query"`
	QueryType        entities.QueryType    `json:"query_type"`
	TopicCluster     entities.TopicCluster `json:"topic_cluster"`
	ExpectedEntities []string              `json:"expected_entities"`
	ExpectedTopics   []string              `json:"expected_topics"`
	Difficulty       string                `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID          string                `json:"query_id"`
	Query            string                `json:"query"`
	ExpectedType     entities.QueryType    `json:"expected_type"`
	PredictedType    entities.QueryType    `json:"predicted_type"`
	ExpectedCluster  entities.TopicCluster `json:"expected_cluster"`
	PredictedCluster entities.TopicCluster `json:"predicted_cluster"`
	EntityRecall     float64               `json:"entity_recall"`
	TopicMRR         float64               `json:"topic_mrr"`
	Latency          time.Duration         `json:"latency"`
}

// TypeCorrect reports whether the predicted query type matches the label.
func (r EvalResult) TypeCorrect() bool {
	return r.ExpectedType == r.PredictedType
}

// ClusterCorrect reports whether the predicted topic cluster matches the label.
func (r EvalResult) ClusterCorrect() bool {
	return r.ExpectedCluster == r.PredictedCluster
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int                                 `json:"total_queries"`
	TypeAccuracy    float64                             `json:"type_accuracy"`
	ClusterAccuracy float64                             `json:"cluster_accuracy"`
	AvgEntityRecall float64                             `json:"avg_entity_recall"`
	AvgTopicMRR     float64                             `json:"avg_topic_mrr"`
	AvgLatency      time.Duration                       `json:"avg_latency"`
	ByType          map[entities.QueryType]*TypeSummary `json:"by_type"`
	Misclassified   []EvalResult                        `json:"misclassified,omitempty"`
}

// TypeSummary holds metrics grouped by expected query type.
type TypeSummary struct {
	Count    int     `json:"count"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}
