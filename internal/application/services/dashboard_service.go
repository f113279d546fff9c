package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

const (
	DateLayout = "2006-01-02"

	summaryCacheTTL     = 60
	topCount            = 10
	defaultRangeDays    = 30
	DefaultBrowseLimit  = 20
	MaxBrowseLimit      = 100
	defaultBrowseColumn = 5
)

// DateRange is an inclusive range of UTC calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ParseDateRange reads YYYY-MM-DD bounds. Empty bounds are filled from def.
func ParseDateRange(from, to string, def DateRange) (DateRange, error) {
	r := def
	if from != "" {
		t, err := time.Parse(DateLayout, from)
		if err != nil {
			return DateRange{}, apperrors.NewValidationError("invalid start date")
		}
		r.From = t
	}
	if to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return DateRange{}, apperrors.NewValidationError("invalid end date")
		}
		r.To = t
	}
	if r.From.After(r.To) {
		return DateRange{}, apperrors.NewValidationError("end date must be after start date")
	}
	return r, nil
}

func (r DateRange) contains(t time.Time) bool {
	d := day(t)
	return !d.Before(r.From) && !d.After(r.To)
}

func (r DateRange) key() string {
	return r.From.Format(DateLayout) + ":" + r.To.Format(DateLayout)
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LabelCount is one bar or pie slice.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SessionProgress is the learning progression of one session.
type SessionProgress struct {
	SessionID             string  `json:"session_id"`
	MaxExplorationDepth   float64 `json:"max_exploration_depth"`
	ComplexityProgression float64 `json:"complexity_progression"`
}

// Summary is everything the dashboard page shows for a date range.
type Summary struct {
	Range DateRange `json:"range"`

	UniqueUsers       int     `json:"unique_users"`
	Sessions          int     `json:"sessions"`
	Interactions      int     `json:"interactions"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`

	DailySessions          []LabelCount      `json:"daily_sessions"`
	InteractionsPerSession []LabelCount      `json:"interactions_per_session"`
	QueryTypes             []LabelCount      `json:"query_types"`
	TopTopics              []LabelCount      `json:"top_topics"`
	Success                []LabelCount      `json:"success"`
	Feedback               []LabelCount      `json:"feedback"`
	TopEntities            []LabelCount      `json:"top_entities"`
	ExplorationDepth       []LabelCount      `json:"exploration_depth"`
	Progression            []SessionProgress `json:"progression"`
	TopicClusters          []LabelCount      `json:"topic_clusters"`
	DeviceTypes            []LabelCount      `json:"device_types"`
	UserTypes              []LabelCount      `json:"user_types"`
}

// Empty reports whether the range holds no sessions.
func (s *Summary) Empty() bool {
	return s.Sessions == 0
}

// TableView is a page of the raw table browser.
type TableView struct {
	Table     repositories.Table `json:"table"`
	Available []string           `json:"available"`
	Columns   []string           `json:"columns"`
	Rows      [][]string         `json:"rows"`
	Total     int                `json:"total"`
}

// DashboardService aggregates stored analytics for the dashboard. Every
// figure is computed from store reads so both backends agree.
type DashboardService struct {
	store   repositories.AnalyticsStore
	cache   providers.CacheProvider
	metrics *observability.Metrics
	now     func() time.Time
}

// NewDashboardService creates the service. cache may be nil.
func NewDashboardService(store repositories.AnalyticsStore, cache providers.CacheProvider, metrics *observability.Metrics) *DashboardService {
	return &DashboardService{store: store, cache: cache, metrics: metrics, now: time.Now}
}

// DefaultRange spans the stored sessions, or the last 30 days when there
// are none or they cannot be read.
func (s *DashboardService) DefaultRange(ctx context.Context) DateRange {
	today := day(s.now())
	fallback := DateRange{From: today.AddDate(0, 0, -defaultRangeDays), To: today}

	rows, err := s.store.ReadAll(ctx, repositories.TableSessions)
	if err != nil || len(rows) == 0 {
		return fallback
	}
	var r DateRange
	for i, row := range rows {
		d := day(repositories.SessionFromRecord(row).StartTime)
		if i == 0 || d.Before(r.From) {
			r.From = d
		}
		if i == 0 || d.After(r.To) {
			r.To = d
		}
	}
	return r
}

// Summary aggregates rng. On a storage error it returns an empty summary
// alongside the error so the page can render "no data".
func (s *DashboardService) Summary(ctx context.Context, rng DateRange) (*Summary, error) {
	cacheKey := "dashboard:summary:" + rng.key()
	if cached := s.cachedSummary(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	summary, err := s.aggregate(ctx, rng)
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("range", rng.key()).Msg("dashboard aggregation failed")
		return emptySummary(rng), err
	}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, summaryCacheTTL)
		}
	}
	return summary, nil
}

func (s *DashboardService) cachedSummary(ctx context.Context, key string) *Summary {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		observability.RecordCacheResult(ctx, s.metrics, "dashboard_summary", false)
		return nil
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		observability.RecordCacheResult(ctx, s.metrics, "dashboard_summary", false)
		return nil
	}
	observability.RecordCacheResult(ctx, s.metrics, "dashboard_summary", true)
	return &summary
}

func emptySummary(rng DateRange) *Summary {
	return &Summary{
		Range:                  rng,
		DailySessions:          []LabelCount{},
		InteractionsPerSession: []LabelCount{},
		QueryTypes:             []LabelCount{},
		TopTopics:              []LabelCount{},
		Success:                []LabelCount{},
		Feedback:               []LabelCount{},
		TopEntities:            []LabelCount{},
		ExplorationDepth:       []LabelCount{},
		Progression:            []SessionProgress{},
		TopicClusters:          []LabelCount{},
		DeviceTypes:            []LabelCount{},
		UserTypes:              []LabelCount{},
	}
}

func (s *DashboardService) aggregate(ctx context.Context, rng DateRange) (*Summary, error) {
	sessionRows, err := s.store.ReadAll(ctx, repositories.TableSessions)
	if err != nil {
		return nil, err
	}
	interactionRows, err := s.store.ReadAll(ctx, repositories.TableInteractions)
	if err != nil {
		return nil, err
	}
	queryRows, err := s.store.ReadAll(ctx, repositories.TableQueryAnalytics)
	if err != nil {
		return nil, err
	}
	metricRows, err := s.store.ReadAll(ctx, repositories.TableEducationalMetrics)
	if err != nil {
		return nil, err
	}

	out := emptySummary(rng)

	// Sessions are selected by start date; everything else follows its session.
	inRange := make(map[string]bool)
	users := make(map[string]bool)
	perSession := make(map[string]int)
	var sessionOrder []string
	daily := newCounter()
	devices := newCounter()
	userTypes := newCounter()
	var durationSum float64
	var durationN int

	for _, row := range sessionRows {
		sess := repositories.SessionFromRecord(row)
		if !rng.contains(sess.StartTime) {
			continue
		}
		inRange[sess.ID] = true
		sessionOrder = append(sessionOrder, sess.ID)
		users[sess.UserID] = true
		perSession[sess.ID] = 0
		daily.add(day(sess.StartTime).Format(DateLayout))
		devices.add(orUnknown(sess.DeviceType))
		if sess.IsReturnUser {
			userTypes.add("Returning")
		} else {
			userTypes.add("New")
		}
		if sess.DurationSeconds != nil {
			durationSum += *sess.DurationSeconds
			durationN++
		}
	}

	out.Sessions = len(inRange)
	out.UniqueUsers = len(users)
	if durationN > 0 {
		out.AvgSessionMinutes = math.Round(durationSum/float64(durationN)/60*10) / 10
	}
	out.DailySessions = daily.byLabel()
	out.DeviceTypes = devices.byCount(0)
	out.UserTypes = userTypes.byCount(0)

	queryTypes := newCounter()
	topics := newCounter()
	entitiesSeen := newCounter()
	success := newCounter()
	feedback := newCounter()
	for _, row := range interactionRows {
		in := repositories.InteractionFromRecord(row)
		if !inRange[in.SessionID] {
			continue
		}
		out.Interactions++
		perSession[in.SessionID]++
		queryTypes.add(string(in.QueryType))
		for _, t := range in.Topics {
			topics.add(t)
		}
		for _, e := range in.HistoricalEntities {
			entitiesSeen.add(e)
		}
		if in.IsSuccessful {
			success.add("Successful")
		} else {
			success.add("Unsuccessful")
		}
		if in.FeedbackScore != nil {
			if *in.FeedbackScore > 3 {
				feedback.add("Positive")
			} else {
				feedback.add("Negative")
			}
		}
	}
	out.QueryTypes = queryTypes.byCount(0)
	out.TopTopics = topics.byCount(topCount)
	out.TopEntities = entitiesSeen.byCount(topCount)
	out.Success = success.byCount(0)
	out.Feedback = feedback.byCount(0)

	engagement := newCounter()
	for _, id := range sessionOrder {
		engagement.add(strconv.Itoa(perSession[id]))
	}
	out.InteractionsPerSession = engagement.byNumericLabel()

	clusters := newCounter()
	for _, row := range queryRows {
		qa := repositories.QueryAnalyticsFromRecord(row)
		if inRange[qa.SessionID] {
			clusters.add(string(qa.TopicCluster))
		}
	}
	out.TopicClusters = clusters.byCount(0)

	progress := make(map[string]*SessionProgress)
	var progressOrder []string
	for _, row := range metricRows {
		m := repositories.EducationalMetricFromRecord(row)
		if !inRange[m.SessionID] {
			continue
		}
		p, ok := progress[m.SessionID]
		if !ok {
			p = &SessionProgress{SessionID: m.SessionID}
			progress[m.SessionID] = p
			progressOrder = append(progressOrder, m.SessionID)
		}
		p.MaxExplorationDepth = math.Max(p.MaxExplorationDepth, m.ExplorationDepth)
		p.ComplexityProgression = m.ComplexityProgression
	}
	depth := newCounter()
	for _, id := range progressOrder {
		p := progress[id]
		out.Progression = append(out.Progression, *p)
		depth.add(DepthCategory(p.MaxExplorationDepth))
	}
	out.ExplorationDepth = depth.byCount(0)

	return out, nil
}

// DepthCategory buckets a session's deepest exploration.
func DepthCategory(depth float64) string {
	switch {
	case depth <= 0.5:
		return "Basic"
	case depth <= 1.0:
		return "Intermediate"
	case depth <= 1.5:
		return "Advanced"
	default:
		return "Expert"
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// BrowseTable returns up to limit rows of table restricted to columns.
// Empty columns selects the first few; limit is clamped to [1, 100].
func (s *DashboardService) BrowseTable(ctx context.Context, table string, columns []string, limit int) (*TableView, error) {
	schema, cols, err := resolveColumns(table, columns, true)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultBrowseLimit
	}
	if limit > MaxBrowseLimit {
		limit = MaxBrowseLimit
	}

	rows, err := s.store.ReadAll(ctx, schema.Table)
	if err != nil {
		return nil, err
	}

	view := &TableView{
		Table:     schema.Table,
		Available: schema.ColumnNames(),
		Columns:   cols,
		Rows:      [][]string{},
		Total:     len(rows),
	}
	for i, row := range rows {
		if i == limit {
			break
		}
		view.Rows = append(view.Rows, formatRow(row, cols))
	}
	return view, nil
}

// ExportCSV writes table as CSV with a header row. Empty columns exports
// every column; limit <= 0 exports every row.
func (s *DashboardService) ExportCSV(ctx context.Context, w io.Writer, table string, columns []string, limit int) error {
	schema, cols, err := resolveColumns(table, columns, false)
	if err != nil {
		return err
	}
	rows, err := s.store.ReadAll(ctx, schema.Table)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for i, row := range rows {
		if limit > 0 && i == limit {
			break
		}
		if err := cw.Write(formatRow(row, cols)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func resolveColumns(table string, columns []string, browse bool) (repositories.Schema, []string, error) {
	t, ok := repositories.ParseTable(table)
	if !ok {
		return repositories.Schema{}, nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown table %q", table))
	}
	schema, _ := repositories.SchemaFor(t)

	if len(columns) == 0 {
		all := schema.ColumnNames()
		if browse && len(all) > defaultBrowseColumn {
			all = all[:defaultBrowseColumn]
		}
		return schema, all, nil
	}

	var cols []string
	seen := make(map[string]bool)
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if _, ok := schema.Column(c); !ok {
			return repositories.Schema{}, nil, apperrors.NewValidationError(fmt.Sprintf("unknown column %q for table %s", c, t))
		}
		seen[c] = true
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return repositories.Schema{}, nil, apperrors.NewValidationError("no columns selected")
	}
	return schema, cols, nil
}

func formatRow(row repositories.Record, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = FormatValue(row[c])
	}
	return out
}

// FormatValue renders a normalized record value as a table cell.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return repositories.FormatTime(x)
	case []string:
		data, _ := json.Marshal(x)
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}

type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) list() []LabelCount {
	out := make([]LabelCount, 0, len(c.order))
	for _, l := range c.order {
		out = append(out, LabelCount{Label: l, Count: c.counts[l]})
	}
	return out
}

// byCount sorts by count descending, then label. n > 0 keeps the top n.
func (c *counter) byCount(n int) []LabelCount {
	out := c.list()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (c *counter) byLabel() []LabelCount {
	out := c.list()
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func (c *counter) byNumericLabel() []LabelCount {
	out := c.list()
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].Label)
		b, _ := strconv.Atoi(out[j].Label)
		return a < b
	})
	return out
}
