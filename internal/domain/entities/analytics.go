package entities

import "time"

// QueryType is the coarse intent of a user query.
type QueryType string

const (
	QueryTypeTemporal    QueryType = "temporal_question"
	QueryTypePerson      QueryType = "person_question"
	QueryTypeLocation    QueryType = "location_question"
	QueryTypeExplanation QueryType = "explanation_question"
	QueryTypeProcess     QueryType = "process_question"
	QueryTypeFactual     QueryType = "factual_question"
	QueryTypeSearch      QueryType = "search_request"
	QueryTypeComparison  QueryType = "comparison_request"
	QueryTypeFeedback    QueryType = "feedback"
	QueryTypeShort       QueryType = "short_query"
	QueryTypeExploratory QueryType = "exploratory_question"
	QueryTypeGeneral     QueryType = "general_query"
)

// QueryTypes lists every query type in classification order.
func QueryTypes() []QueryType {
	return []QueryType{
		QueryTypeTemporal, QueryTypePerson, QueryTypeLocation, QueryTypeExplanation,
		QueryTypeProcess, QueryTypeFactual, QueryTypeSearch, QueryTypeComparison,
		QueryTypeFeedback, QueryTypeShort, QueryTypeExploratory, QueryTypeGeneral,
	}
}

// IsValid checks if the query type is one of the defined constants.
func (t QueryType) IsValid() bool {
	for _, v := range QueryTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// TopicCluster is the subject-matter bucket a query falls into.
type TopicCluster string

const (
	ClusterDocumentPreservation TopicCluster = "document_preservation"
	ClusterHistoricalResearch   TopicCluster = "historical_research"
	ClusterDigitalArchives      TopicCluster = "digital_archives"
	ClusterMetadata             TopicCluster = "metadata"
	ClusterSpecificCollection   TopicCluster = "specific_collection"
	ClusterTimePeriod           TopicCluster = "time_period"
	ClusterTechnicalHelp        TopicCluster = "technical_help"
	ClusterGeneral              TopicCluster = "general"
)

// Session is one conversation between a browser client and the bot.
type Session struct {
	ID               string     `json:"session_id"`
	UserID           string     `json:"user_id"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	DurationSeconds  *float64   `json:"duration_seconds,omitempty"`
	InteractionCount int        `json:"interaction_count"`
	DeviceType       string     `json:"device_type"`
	Browser          string     `json:"browser"`
	IsMobile         bool       `json:"is_mobile"`
	IsReturnUser     bool       `json:"is_return_user"`
}

// Closed reports whether the session has been ended.
func (s *Session) Closed() bool {
	return s.EndTime != nil
}

// Interaction is a single user query and the assistant's reply.
type Interaction struct {
	ID                 string    `json:"interaction_id"`
	SessionID          string    `json:"session_id"`
	Timestamp          time.Time `json:"timestamp"`
	Query              string    `json:"query"`
	QueryType          QueryType `json:"query_type"`
	Response           string    `json:"response"`
	ResponseTimeMs     int64     `json:"response_time_ms"`
	SentimentScore     float64   `json:"sentiment_score"`
	IsSuccessful       bool      `json:"is_successful"`
	IsFallback         bool      `json:"is_fallback"`
	Topics             []string  `json:"topics"`
	HistoricalEntities []string  `json:"historical_entities"`
	FeedbackScore      *int      `json:"feedback_score,omitempty"`
}

// QueryAnalytics links consecutive queries of a session.
type QueryAnalytics struct {
	ID              string       `json:"query_id"`
	SessionID       string       `json:"session_id"`
	Timestamp       time.Time    `json:"timestamp"`
	Query           string       `json:"query"`
	Length          int          `json:"query_length"`
	Complexity      float64      `json:"query_complexity"`
	IsReformulation bool         `json:"is_reformulation"`
	PreviousQueryID *string      `json:"previous_query_id,omitempty"`
	TopicCluster    TopicCluster `json:"topic_cluster"`
	HasFollowup     bool         `json:"has_followup"`
}

// EducationalMetric records how deeply a topic was explored in one exchange.
type EducationalMetric struct {
	ID                    string    `json:"metric_id"`
	SessionID             string    `json:"session_id"`
	Timestamp             time.Time `json:"timestamp"`
	Topic                 string    `json:"topic"`
	ExplorationDepth      float64   `json:"exploration_depth"`
	TimeSpentSeconds      float64   `json:"time_spent_seconds"`
	HistoricalFigures     []string  `json:"historical_figures"`
	HistoricalEvents      []string  `json:"historical_events"`
	ComplexityProgression float64   `json:"complexity_progression"`
}

// FeedbackEntry is an append-only log of rating events.
type FeedbackEntry struct {
	ID            string    `json:"feedback_id"`
	InteractionID string    `json:"interaction_id"`
	SessionID     string    `json:"session_id"`
	Timestamp     time.Time `json:"timestamp"`
	FeedbackScore int       `json:"feedback_score"`
}
