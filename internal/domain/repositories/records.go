package repositories

import (
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// SessionRecord maps a session to its row.
func SessionRecord(s *entities.Session) Record {
	return Record{
		"session_id":        s.ID,
		"user_id":           s.UserID,
		"start_time":        s.StartTime,
		"end_time":          s.EndTime,
		"duration_seconds":  s.DurationSeconds,
		"interaction_count": s.InteractionCount,
		"device_type":       s.DeviceType,
		"browser":           s.Browser,
		"is_mobile":         s.IsMobile,
		"is_return_user":    s.IsReturnUser,
	}
}

// SessionFromRecord maps a canonical row back to a session.
func SessionFromRecord(r Record) *entities.Session {
	return &entities.Session{
		ID:               str(r, "session_id"),
		UserID:           str(r, "user_id"),
		StartTime:        tm(r, "start_time"),
		EndTime:          tmPtr(r, "end_time"),
		DurationSeconds:  fltPtr(r, "duration_seconds"),
		InteractionCount: int(i64(r, "interaction_count")),
		DeviceType:       str(r, "device_type"),
		Browser:          str(r, "browser"),
		IsMobile:         boolean(r, "is_mobile"),
		IsReturnUser:     boolean(r, "is_return_user"),
	}
}

func InteractionRecord(in *entities.Interaction) Record {
	return Record{
		"interaction_id":      in.ID,
		"session_id":          in.SessionID,
		"timestamp":           in.Timestamp,
		"query":               in.Query,
		"query_type":          string(in.QueryType),
		"response":            in.Response,
		"response_time_ms":    in.ResponseTimeMs,
		"sentiment_score":     in.SentimentScore,
		"is_successful":       in.IsSuccessful,
		"is_fallback":         in.IsFallback,
		"topics":              nonNil(in.Topics),
		"historical_entities": nonNil(in.HistoricalEntities),
		"feedback_score":      in.FeedbackScore,
	}
}

func InteractionFromRecord(r Record) *entities.Interaction {
	in := &entities.Interaction{
		ID:                 str(r, "interaction_id"),
		SessionID:          str(r, "session_id"),
		Timestamp:          tm(r, "timestamp"),
		Query:              str(r, "query"),
		QueryType:          entities.QueryType(str(r, "query_type")),
		Response:           str(r, "response"),
		ResponseTimeMs:     i64(r, "response_time_ms"),
		SentimentScore:     flt(r, "sentiment_score"),
		IsSuccessful:       boolean(r, "is_successful"),
		IsFallback:         boolean(r, "is_fallback"),
		Topics:             strs(r, "topics"),
		HistoricalEntities: strs(r, "historical_entities"),
	}
	if v, ok := r["feedback_score"].(int64); ok {
		score := int(v)
		in.FeedbackScore = &score
	}
	return in
}

func QueryAnalyticsRecord(q *entities.QueryAnalytics) Record {
	return Record{
		"query_id":          q.ID,
		"session_id":        q.SessionID,
		"timestamp":         q.Timestamp,
		"query":             q.Query,
		"query_length":      q.Length,
		"query_complexity":  q.Complexity,
		"is_reformulation":  q.IsReformulation,
		"previous_query_id": q.PreviousQueryID,
		"topic_cluster":     string(q.TopicCluster),
		"has_followup":      q.HasFollowup,
	}
}

func QueryAnalyticsFromRecord(r Record) *entities.QueryAnalytics {
	q := &entities.QueryAnalytics{
		ID:              str(r, "query_id"),
		SessionID:       str(r, "session_id"),
		Timestamp:       tm(r, "timestamp"),
		Query:           str(r, "query"),
		Length:          int(i64(r, "query_length")),
		Complexity:      flt(r, "query_complexity"),
		IsReformulation: boolean(r, "is_reformulation"),
		TopicCluster:    entities.TopicCluster(str(r, "topic_cluster")),
		HasFollowup:     boolean(r, "has_followup"),
	}
	if v, ok := r["previous_query_id"].(string); ok {
		q.PreviousQueryID = &v
	}
	return q
}

func EducationalMetricRecord(m *entities.EducationalMetric) Record {
	return Record{
		"metric_id":              m.ID,
		"session_id":             m.SessionID,
		"timestamp":              m.Timestamp,
		"topic":                  m.Topic,
		"exploration_depth":      m.ExplorationDepth,
		"time_spent_seconds":     m.TimeSpentSeconds,
		"historical_figures":     nonNil(m.HistoricalFigures),
		"historical_events":      nonNil(m.HistoricalEvents),
		"complexity_progression": m.ComplexityProgression,
	}
}

func EducationalMetricFromRecord(r Record) *entities.EducationalMetric {
	return &entities.EducationalMetric{
		ID:                    str(r, "metric_id"),
		SessionID:             str(r, "session_id"),
		Timestamp:             tm(r, "timestamp"),
		Topic:                 str(r, "topic"),
		ExplorationDepth:      flt(r, "exploration_depth"),
		TimeSpentSeconds:      flt(r, "time_spent_seconds"),
		HistoricalFigures:     strs(r, "historical_figures"),
		HistoricalEvents:      strs(r, "historical_events"),
		ComplexityProgression: flt(r, "complexity_progression"),
	}
}

func FeedbackRecord(f *entities.FeedbackEntry) Record {
	return Record{
		"feedback_id":    f.ID,
		"interaction_id": f.InteractionID,
		"session_id":     f.SessionID,
		"timestamp":      f.Timestamp,
		"feedback_score": f.FeedbackScore,
	}
}

func FeedbackFromRecord(r Record) *entities.FeedbackEntry {
	return &entities.FeedbackEntry{
		ID:            str(r, "feedback_id"),
		InteractionID: str(r, "interaction_id"),
		SessionID:     str(r, "session_id"),
		Timestamp:     tm(r, "timestamp"),
		FeedbackScore: int(i64(r, "feedback_score")),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func str(r Record, k string) string {
	v, _ := r[k].(string)
	return v
}

func i64(r Record, k string) int64 {
	v, _ := r[k].(int64)
	return v
}

func flt(r Record, k string) float64 {
	v, _ := r[k].(float64)
	return v
}

func fltPtr(r Record, k string) *float64 {
	if v, ok := r[k].(float64); ok {
		return &v
	}
	return nil
}

func boolean(r Record, k string) bool {
	v, _ := r[k].(bool)
	return v
}

func tm(r Record, k string) time.Time {
	v, _ := r[k].(time.Time)
	return v
}

func tmPtr(r Record, k string) *time.Time {
	if v, ok := r[k].(time.Time); ok {
		return &v
	}
	return nil
}

func strs(r Record, k string) []string {
	if v, ok := r[k].([]string); ok {
		return v
	}
	return []string{}
}
