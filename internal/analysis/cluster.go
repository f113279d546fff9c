package analysis

import (
	"strings"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// topicBuckets is in tie-break order: on equal scores the earlier bucket wins.
var topicBuckets = []struct {
	cluster  entities.TopicCluster
	keywords []string
}{
	{entities.ClusterDocumentPreservation, []string{"preserv", "conserv", "restor", "damage", "deteriorat", "fragile", "archival storage"}},
	{entities.ClusterHistoricalResearch, []string{"research", "history", "historian", "scholar", "primary source", "evidence", "study"}},
	{entities.ClusterDigitalArchives, []string{"digital", "online", "digitized", "scan", "database", "website", "download"}},
	{entities.ClusterMetadata, []string{"metadata", "catalog", "index", "finding aid", "descript", "citation", "cite"}},
	{entities.ClusterSpecificCollection, []string{"collection", "diary", "memoir", "photograph", "letters", "yearbook", "papers"}},
	{entities.ClusterTimePeriod, []string{"century", "decade", "era", "period", "1950s", "1960s", "during"}},
	{entities.ClusterTechnicalHelp, []string{"help", "access", "login", "error", "navigate", "not working", "how do i"}},
}

// DetermineTopicCluster scores each bucket by the number of its keywords that
// occur in the query and returns the best one, or general when none match.
func DetermineTopicCluster(query string) entities.TopicCluster {
	q := strings.ToLower(query)

	best, bestScore := entities.ClusterGeneral, 0
	for _, b := range topicBuckets {
		score := 0
		for _, k := range b.keywords {
			if strings.Contains(q, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = b.cluster, score
		}
	}
	return best
}

// TopicClusters lists every cluster in declaration order, general last.
func TopicClusters() []entities.TopicCluster {
	out := make([]entities.TopicCluster, 0, len(topicBuckets)+1)
	for _, b := range topicBuckets {
		out = append(out, b.cluster)
	}
	return append(out, entities.ClusterGeneral)
}
