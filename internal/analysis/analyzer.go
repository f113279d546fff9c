package analysis

import (
	"unicode/utf8"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// QueryFeatures bundles everything derived from a single query.
type QueryFeatures struct {
	QueryType          entities.QueryType
	Topics             []string
	HistoricalEntities []string
	Sentiment          float64
	Complexity         float64
	Length             int
	TopicCluster       entities.TopicCluster
}

// AnalyzeQuery runs every per-query analyzer over query.
func AnalyzeQuery(query string) QueryFeatures {
	return QueryFeatures{
		QueryType:          ClassifyQueryType(query),
		Topics:             ExtractTopics(query),
		HistoricalEntities: ExtractHistoricalEntities(query),
		Sentiment:          AnalyzeSentiment(query),
		Complexity:         CalculateQueryComplexity(query),
		Length:             utf8.RuneCountInString(query),
		TopicCluster:       DetermineTopicCluster(query),
	}
}

// SplitEntities separates person entities from dated events. Entities that
// are neither (places, institutions) are dropped.
func SplitEntities(entities []string) (figures, events []string) {
	figures, events = []string{}, []string{}
	for _, e := range entities {
		switch {
		case IsPersonEntity(e):
			figures = append(figures, e)
		case IsEventEntity(e):
			events = append(events, e)
		}
	}
	return figures, events
}
