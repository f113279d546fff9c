package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/analysis"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// SessionState is the lifecycle position of a tracker.
type SessionState int

const (
	StateUnstarted SessionState = iota
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unstarted"
	}
}

// ClientInfo identifies the browser a session belongs to.
type ClientInfo struct {
	// UserID is the persistent id from a previous visit, empty for new users.
	UserID    string
	UserAgent string
}

// InteractionInput is one exchange to record. Zero-valued optional fields
// are derived by the analyzer or default to now.
type InteractionInput struct {
	Query     string
	Response  string
	StartTime time.Time
	EndTime   time.Time

	QueryType          entities.QueryType
	Topics             []string
	HistoricalEntities []string
	Sentiment          *float64
	IsSuccessful       *bool
	IsFallback         *bool
}

// SessionTracker owns the analytics state of one client's conversation:
// UNSTARTED, then ACTIVE after StartSession, then CLOSED after EndSession.
// A closed tracker can start a new session.
type SessionTracker struct {
	store   repositories.AnalyticsStore
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string

	mu                sync.Mutex
	state             SessionState
	sessionID         string
	userID            string
	startTime         time.Time
	interactionCount  int
	lastQuery         string
	lastQueryID       string
	lastInteractionID string
	lastActivity      time.Time
	complexities      []float64
}

// TrackerOption customizes a SessionTracker.
type TrackerOption func(*SessionTracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *SessionTracker) { t.now = now }
}

// WithIDGenerator replaces random UUIDs.
func WithIDGenerator(newID func() string) TrackerOption {
	return func(t *SessionTracker) { t.newID = newID }
}

func WithMetrics(m *observability.Metrics) TrackerOption {
	return func(t *SessionTracker) { t.metrics = m }
}

// NewSessionTracker creates an UNSTARTED tracker.
func NewSessionTracker(store repositories.AnalyticsStore, opts ...TrackerOption) *SessionTracker {
	t := &SessionTracker{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SessionTracker) State() SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *SessionTracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *SessionTracker) UserID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

func (t *SessionTracker) InteractionCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interactionCount
}

// LastInteractionID is the id feedback buttons refer to.
func (t *SessionTracker) LastInteractionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastInteractionID
}

// StartSession opens a session and persists its record. Calling it on an
// active tracker returns the current session id.
func (t *SessionTracker) StartSession(ctx context.Context, client ClientInfo) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateActive {
		return t.sessionID, nil
	}

	now := t.now().UTC()
	userID := client.UserID
	if userID == "" && t.userID != "" {
		userID = t.userID
	}
	returning := userID != ""
	if userID == "" {
		userID = t.newID()
	}

	device := DescribeDevice(client.UserAgent)
	session := &entities.Session{
		ID:           t.newID(),
		UserID:       userID,
		StartTime:    now,
		DeviceType:   device.Type,
		Browser:      device.Browser,
		IsMobile:     device.Mobile,
		IsReturnUser: returning,
	}
	if err := t.store.Append(ctx, repositories.TableSessions, repositories.SessionRecord(session)); err != nil {
		return "", err
	}

	t.state = StateActive
	t.sessionID = session.ID
	t.userID = userID
	t.startTime = now
	t.lastActivity = now
	t.resetCounters()

	observability.LoggerFromContext(ctx).Info().
		Str("session_id", session.ID).
		Str("user_id", userID).
		Bool("return_user", returning).
		Msg("session started")
	return session.ID, nil
}

// TrackInteraction records an exchange and its derived analytics. It returns
// "" and writes nothing unless the session is active. The interaction row is
// written first; query analytics and educational metrics follow as separate
// writes whose failures are logged without undoing the interaction.
func (t *SessionTracker) TrackInteraction(ctx context.Context, in InteractionInput) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return "", nil
	}

	now := t.now().UTC()
	start, end := in.StartTime, in.EndTime
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = now
	}

	features := analysis.AnalyzeQuery(in.Query)
	interaction := &entities.Interaction{
		ID:                 t.newID(),
		SessionID:          t.sessionID,
		Timestamp:          now,
		Query:              in.Query,
		QueryType:          features.QueryType,
		Response:           in.Response,
		ResponseTimeMs:     end.Sub(start).Milliseconds(),
		SentimentScore:     features.Sentiment,
		IsSuccessful:       analysis.IsSuccessful(in.Response),
		IsFallback:         analysis.IsFallback(in.Response),
		Topics:             features.Topics,
		HistoricalEntities: features.HistoricalEntities,
	}
	if in.QueryType != "" {
		interaction.QueryType = in.QueryType
	}
	if in.Topics != nil {
		interaction.Topics = in.Topics
	}
	if in.HistoricalEntities != nil {
		interaction.HistoricalEntities = in.HistoricalEntities
	}
	if in.Sentiment != nil {
		interaction.SentimentScore = *in.Sentiment
	}
	if in.IsSuccessful != nil {
		interaction.IsSuccessful = *in.IsSuccessful
	}
	if in.IsFallback != nil {
		interaction.IsFallback = *in.IsFallback
	}

	if err := t.store.Append(ctx, repositories.TableInteractions, repositories.InteractionRecord(interaction)); err != nil {
		return "", err
	}
	t.interactionCount++
	observability.RecordInteraction(ctx, t.metrics, string(interaction.QueryType))

	logger := observability.LoggerFromContext(ctx).With().
		Str("session_id", t.sessionID).
		Str("interaction_id", interaction.ID).
		Logger()

	queryID := t.newID()
	if err := t.recordQueryAnalytics(ctx, queryID, now, in.Query, features); err != nil {
		logger.Warn().Err(err).Msg("failed to record query analytics")
	}

	t.complexities = append(t.complexities, features.Complexity)
	if len(interaction.HistoricalEntities) > 0 {
		if err := t.recordEducationalMetrics(ctx, now, interaction); err != nil {
			logger.Warn().Err(err).Msg("failed to record educational metrics")
		}
	}

	t.lastQuery = in.Query
	t.lastQueryID = queryID
	t.lastInteractionID = interaction.ID
	t.lastActivity = now
	return interaction.ID, nil
}

func (t *SessionTracker) recordQueryAnalytics(ctx context.Context, queryID string, now time.Time, query string, f analysis.QueryFeatures) error {
	qa := &entities.QueryAnalytics{
		ID:              queryID,
		SessionID:       t.sessionID,
		Timestamp:       now,
		Query:           query,
		Length:          f.Length,
		Complexity:      f.Complexity,
		IsReformulation: analysis.IsReformulation(t.lastQuery, query),
		TopicCluster:    f.TopicCluster,
	}
	if t.lastQueryID != "" {
		prev := t.lastQueryID
		qa.PreviousQueryID = &prev
	}
	if err := t.store.Append(ctx, repositories.TableQueryAnalytics, repositories.QueryAnalyticsRecord(qa)); err != nil {
		return err
	}

	if t.lastQueryID == "" {
		return nil
	}
	_, err := t.store.UpdateWhere(ctx, repositories.TableQueryAnalytics,
		repositories.Filter{"query_id": t.lastQueryID},
		repositories.Record{"has_followup": true},
	)
	return err
}

func (t *SessionTracker) recordEducationalMetrics(ctx context.Context, now time.Time, in *entities.Interaction) error {
	figures, events := analysis.SplitEntities(in.HistoricalEntities)
	depth := analysis.CalculateExplorationDepth(in.HistoricalEntities)
	progression := analysis.CalculateComplexityProgression(t.complexities)
	spent := now.Sub(t.lastActivity).Seconds()

	for _, topic := range in.Topics {
		metric := &entities.EducationalMetric{
			ID:                    t.newID(),
			SessionID:             t.sessionID,
			Timestamp:             now,
			Topic:                 topic,
			ExplorationDepth:      depth,
			TimeSpentSeconds:      spent,
			HistoricalFigures:     figures,
			HistoricalEvents:      events,
			ComplexityProgression: progression,
		}
		if err := t.store.Append(ctx, repositories.TableEducationalMetrics, repositories.EducationalMetricRecord(metric)); err != nil {
			return err
		}
	}
	return nil
}

// EndSession writes the end time, duration and interaction count, then
// closes the tracker. It is a no-op unless the session is active. The
// tracker closes even when the write fails.
func (t *SessionTracker) EndSession(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return nil
	}

	now := t.now().UTC()
	duration := now.Sub(t.startTime).Seconds()
	sessionID, count := t.sessionID, t.interactionCount

	t.state = StateClosed
	t.resetCounters()

	_, err := t.store.UpdateWhere(ctx, repositories.TableSessions,
		repositories.Filter{"session_id": sessionID},
		repositories.Record{
			"end_time":          now,
			"duration_seconds":  duration,
			"interaction_count": count,
		},
	)

	observability.LoggerFromContext(ctx).Info().
		Str("session_id", sessionID).
		Int("interactions", count).
		Float64("duration_seconds", duration).
		Err(err).
		Msg("session ended")
	return err
}

// TrackFeedback rates an interaction. See RecordFeedback.
func (t *SessionTracker) TrackFeedback(ctx context.Context, interactionID string, score int) error {
	return RecordFeedback(ctx, t.store, t.now, t.newID, interactionID, score)
}

// IdleSince reports when the tracker last saw activity.
func (t *SessionTracker) IdleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastActivity
}

func (t *SessionTracker) resetCounters() {
	t.interactionCount = 0
	t.lastQuery = ""
	t.lastQueryID = ""
	t.lastInteractionID = ""
	t.complexities = nil
}

// RecordFeedback sets an interaction's feedback score (last write wins) and
// appends a feedback log entry. Empty or unknown ids are ignored.
func RecordFeedback(ctx context.Context, store repositories.AnalyticsStore, now func() time.Time, newID func() string, interactionID string, score int) error {
	interactionID = strings.TrimSpace(interactionID)
	if interactionID == "" {
		return nil
	}

	rows, err := store.Query(ctx, repositories.TableInteractions, repositories.Filter{"interaction_id": interactionID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	interaction := repositories.InteractionFromRecord(rows[0])

	if _, err := store.UpdateWhere(ctx, repositories.TableInteractions,
		repositories.Filter{"interaction_id": interactionID},
		repositories.Record{"feedback_score": score},
	); err != nil {
		return err
	}

	entry := &entities.FeedbackEntry{
		ID:            newID(),
		InteractionID: interactionID,
		SessionID:     interaction.SessionID,
		Timestamp:     now().UTC(),
		FeedbackScore: score,
	}
	return store.Append(ctx, repositories.TableFeedback, repositories.FeedbackRecord(entry))
}

// Device is what the session record stores about the client.
type Device struct {
	Type    string
	Browser string
	Mobile  bool
}

// DescribeDevice classifies a User-Agent header.
func DescribeDevice(userAgent string) Device {
	if strings.TrimSpace(userAgent) == "" {
		return Device{Type: "Unknown", Browser: "Unknown"}
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown"
	}

	lower := strings.ToLower(userAgent)
	d := Device{Browser: browser, Mobile: ua.Mobile()}
	switch {
	case ua.Bot():
		d.Type = "Bot"
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		d.Type = "Tablet"
	case d.Mobile:
		d.Type = "Mobile"
	default:
		d.Type = "Desktop"
	}
	return d
}
