package services_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

func date(s string) time.Time {
	t, err := time.Parse(services.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(day string, hour int) time.Time {
	return date(day).Add(time.Duration(hour) * time.Hour)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
func ptrTime(t time.Time) *time.Time {
	return &t
}

// seedDashboard writes three sessions: two inside 2024-03-01..02 and one on
// 2024-03-05.
func seedDashboard(t *testing.T, store repositories.AnalyticsStore) {
	t.Helper()
	ctx := context.Background()

	sessions := []*entities.Session{
		{ID: "s1", UserID: "u1", StartTime: at("2024-03-01", 10), EndTime: ptrTime(at("2024-03-01", 11)), DurationSeconds: ptrFloat(600), InteractionCount: 2, DeviceType: "Desktop", Browser: "Chrome"},
		{ID: "s2", UserID: "u1", StartTime: at("2024-03-02", 9), EndTime: ptrTime(at("2024-03-02", 10)), DurationSeconds: ptrFloat(1200), InteractionCount: 1, DeviceType: "Mobile", Browser: "Safari", IsMobile: true, IsReturnUser: true},
		{ID: "s3", UserID: "u2", StartTime: at("2024-03-05", 9), DeviceType: "Desktop", Browser: "Firefox"},
	}
	for _, s := range sessions {
		require.NoError(t, store.Append(ctx, repositories.TableSessions, repositories.SessionRecord(s)))
	}

	interactions := []*entities.Interaction{
		{ID: "i1", SessionID: "s1", Timestamp: at("2024-03-01", 10), Query: "When did Central High integrate in 1957?", QueryType: entities.QueryTypeTemporal, Response: "1957.", IsSuccessful: true, Topics: []string{"integrate", "central"}, HistoricalEntities: []string{"1957", "Central High"}, FeedbackScore: ptrInt(5)},
		{ID: "i2", SessionID: "s1", Timestamp: at("2024-03-01", 11), Query: "Who was Daisy Bates?", QueryType: entities.QueryTypePerson, Response: "I'm not sure.", IsFallback: true, Topics: []string{"daisy", "bates"}, HistoricalEntities: []string{"Daisy Bates"}, FeedbackScore: ptrInt(1)},
		{ID: "i3", SessionID: "s2", Timestamp: at("2024-03-02", 9), Query: "When was central built?", QueryType: entities.QueryTypeTemporal, Response: "1927.", IsSuccessful: true, Topics: []string{"central"}, HistoricalEntities: []string{}},
		{ID: "i4", SessionID: "s3", Timestamp: at("2024-03-05", 9), Query: "hello", QueryType: entities.QueryTypeShort, Response: "Hi!", IsSuccessful: true, Topics: []string{"hello"}, HistoricalEntities: []string{}},
	}
	for _, in := range interactions {
		require.NoError(t, store.Append(ctx, repositories.TableInteractions, repositories.InteractionRecord(in)))
	}

	queries := []*entities.QueryAnalytics{
		{ID: "q1", SessionID: "s1", Timestamp: at("2024-03-01", 10), TopicCluster: entities.ClusterTimePeriod},
		{ID: "q2", SessionID: "s1", Timestamp: at("2024-03-01", 11), TopicCluster: entities.ClusterHistoricalResearch},
		{ID: "q3", SessionID: "s2", Timestamp: at("2024-03-02", 9), TopicCluster: entities.ClusterTimePeriod},
		{ID: "q4", SessionID: "s3", Timestamp: at("2024-03-05", 9), TopicCluster: entities.ClusterGeneral},
	}
	for _, q := range queries {
		require.NoError(t, store.Append(ctx, repositories.TableQueryAnalytics, repositories.QueryAnalyticsRecord(q)))
	}

	metrics := []*entities.EducationalMetric{
		{ID: "m1", SessionID: "s1", Timestamp: at("2024-03-01", 10), Topic: "integrate", ExplorationDepth: 1.07},
		{ID: "m2", SessionID: "s1", Timestamp: at("2024-03-01", 11), Topic: "daisy", ExplorationDepth: 0.4, ComplexityProgression: 0.2},
		{ID: "m3", SessionID: "s2", Timestamp: at("2024-03-02", 9), Topic: "central", ExplorationDepth: 1.8},
	}
	for _, m := range metrics {
		require.NoError(t, store.Append(ctx, repositories.TableEducationalMetrics, repositories.EducationalMetricRecord(m)))
	}
}

func TestDashboardService_Summary(t *testing.T) {
	store := newStore(t)
	seedDashboard(t, store)
	svc := services.NewDashboardService(store, nil, nil)

	summary, err := svc.Summary(context.Background(), services.DateRange{From: date("2024-03-01"), To: date("2024-03-02")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UniqueUsers)
	assert.Equal(t, 2, summary.Sessions)
	assert.Equal(t, 3, summary.Interactions)
	assert.Equal(t, 15.0, summary.AvgSessionMinutes)
	assert.False(t, summary.Empty())

	assert.Equal(t, []services.LabelCount{{"2024-03-01", 1}, {"2024-03-02", 1}}, summary.DailySessions)
	assert.Equal(t, []services.LabelCount{{"1", 1}, {"2", 1}}, summary.InteractionsPerSession)
	assert.Equal(t, []services.LabelCount{{"temporal_question", 2}, {"person_question", 1}}, summary.QueryTypes)
	assert.Equal(t, []services.LabelCount{{"central", 2}, {"bates", 1}, {"daisy", 1}, {"integrate", 1}}, summary.TopTopics)
	assert.Equal(t, []services.LabelCount{{"Successful", 2}, {"Unsuccessful", 1}}, summary.Success)
	assert.Equal(t, []services.LabelCount{{"Negative", 1}, {"Positive", 1}}, summary.Feedback)
	assert.Equal(t, []services.LabelCount{{"1957", 1}, {"Central High", 1}, {"Daisy Bates", 1}}, summary.TopEntities)
	assert.Equal(t, []services.LabelCount{{"time_period", 2}, {"historical_research", 1}}, summary.TopicClusters)
	assert.Equal(t, []services.LabelCount{{"Desktop", 1}, {"Mobile", 1}}, summary.DeviceTypes)
	assert.Equal(t, []services.LabelCount{{"New", 1}, {"Returning", 1}}, summary.UserTypes)

	assert.Equal(t, []services.SessionProgress{
		{SessionID: "s1", MaxExplorationDepth: 1.07, ComplexityProgression: 0.2},
		{SessionID: "s2", MaxExplorationDepth: 1.8},
	}, summary.Progression)
	assert.Equal(t, []services.LabelCount{{"Advanced", 1}, {"Expert", 1}}, summary.ExplorationDepth)
}

func TestDashboardService_Summary_EmptyRange(t *testing.T) {
	store := newStore(t)
	seedDashboard(t, store)
	svc := services.NewDashboardService(store, nil, nil)

	summary, err := svc.Summary(context.Background(), services.DateRange{From: date("2023-01-01"), To: date("2023-01-31")})
	require.NoError(t, err)
	assert.True(t, summary.Empty())
	assert.Equal(t, 0, summary.Interactions)
	assert.Empty(t, summary.TopTopics)
	assert.NotNil(t, summary.TopTopics)
}

func TestDashboardService_Summary_StorageFailure(t *testing.T) {
	store := &flakyStore{AnalyticsStore: newStore(t), failRead: true}
	svc := services.NewDashboardService(store, nil, nil)

	rng := services.DateRange{From: date("2024-03-01"), To: date("2024-03-02")}
	summary, err := svc.Summary(context.Background(), rng)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	require.NotNil(t, summary)
	assert.True(t, summary.Empty())
	assert.Equal(t, rng, summary.Range)
}

func TestDashboardService_Summary_Cached(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedDashboard(t, store)
	cache := NewMockCacheProvider()
	svc := services.NewDashboardService(store, cache, nil)
	rng := services.DateRange{From: date("2024-03-01"), To: date("2024-03-02")}

	first, err := svc.Summary(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard:summary:2024-03-01:2024-03-02"}, cache.Keys())

	require.NoError(t, store.Append(ctx, repositories.TableSessions, repositories.SessionRecord(&entities.Session{
		ID: "s9", UserID: "u9", StartTime: at("2024-03-02", 12),
	})))

	second, err := svc.Summary(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, first.Sessions, second.Sessions)
	assert.Equal(t, first.TopTopics, second.TopTopics)

	wider, err := svc.Summary(ctx, services.DateRange{From: date("2024-03-01"), To: date("2024-03-05")})
	require.NoError(t, err)
	assert.Equal(t, 4, wider.Sessions)
}

func TestDashboardService_DefaultRange(t *testing.T) {
	store := newStore(t)
	svc := services.NewDashboardService(store, nil, nil)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	empty := svc.DefaultRange(context.Background())
	assert.Equal(t, today, empty.To)
	assert.Equal(t, today.AddDate(0, 0, -30), empty.From)

	seedDashboard(t, store)
	rng := svc.DefaultRange(context.Background())
	assert.Equal(t, date("2024-03-01"), rng.From)
	assert.Equal(t, date("2024-03-05"), rng.To)
}

func TestParseDateRange(t *testing.T) {
	def := services.DateRange{From: date("2024-03-01"), To: date("2024-03-05")}

	rng, err := services.ParseDateRange("", "", def)
	require.NoError(t, err)
	assert.Equal(t, def, rng)

	rng, err = services.ParseDateRange("2024-03-02", "", def)
	require.NoError(t, err)
	assert.Equal(t, date("2024-03-02"), rng.From)
	assert.Equal(t, def.To, rng.To)

	_, err = services.ParseDateRange("03/02/2024", "", def)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = services.ParseDateRange("2024-03-06", "2024-03-01", def)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDepthCategory(t *testing.T) {
	assert.Equal(t, "Basic", services.DepthCategory(0.3))
	assert.Equal(t, "Basic", services.DepthCategory(0.5))
	assert.Equal(t, "Intermediate", services.DepthCategory(0.98))
	assert.Equal(t, "Advanced", services.DepthCategory(1.5))
	assert.Equal(t, "Expert", services.DepthCategory(1.95))
	assert.Equal(t, "Expert", services.DepthCategory(2.4))
}

func TestDashboardService_BrowseTable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedDashboard(t, store)
	svc := services.NewDashboardService(store, nil, nil)

	view, err := svc.BrowseTable(ctx, "sessions", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"session_id", "user_id", "start_time", "end_time", "duration_seconds"}, view.Columns)
	assert.Len(t, view.Available, 10)
	assert.Equal(t, 3, view.Total)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, []string{"s3", "u2", "2024-03-05T09:00:00.000000Z", "", ""}, view.Rows[2])

	view, err = svc.BrowseTable(ctx, "interactions", []string{"interaction_id", "topics", "feedback_score"}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"i1", `["integrate","central"]`, "5"},
		{"i2", `["daisy","bates"]`, "1"},
	}, view.Rows)
	assert.Equal(t, 4, view.Total)

	_, err = svc.BrowseTable(ctx, "users", nil, 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.BrowseTable(ctx, "sessions", []string{"password"}, 10)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDashboardService_ExportCSV(t *testing.T) {
	store := newStore(t)
	seedDashboard(t, store)
	svc := services.NewDashboardService(store, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, "educational_metrics", []string{"metric_id", "exploration_depth", "historical_events"}, 0))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"metric_id", "exploration_depth", "historical_events"},
		{"m1", "1.07", "[]"},
		{"m2", "0.4", "[]"},
		{"m3", "1.8", "[]"},
	}, records)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", services.FormatValue(nil))
	assert.Equal(t, "42", services.FormatValue(int64(42)))
	assert.Equal(t, "true", services.FormatValue(true))
	assert.Equal(t, "2024-03-01T10:00:00.000000Z", services.FormatValue(at("2024-03-01", 10)))
	assert.Equal(t, `["a","b"]`, services.FormatValue([]string{"a", "b"}))
}
