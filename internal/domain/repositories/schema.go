package repositories

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is how timestamps are persisted. Fixed width and UTC, so stored
// values sort lexicographically in both backends.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// ColumnKind is the logical type of a column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindStrings
)

type Column struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// Schema describes a table: its primary key, the column rows are ordered by,
// and every column in declaration order.
type Schema struct {
	Table   Table
	Key     string
	OrderBy string
	Columns []Column
}

var schemas = []Schema{
	{
		Table: TableSessions, Key: "session_id", OrderBy: "start_time",
		Columns: []Column{
			{Name: "session_id", Kind: KindString},
			{Name: "user_id", Kind: KindString},
			{Name: "start_time", Kind: KindTime},
			{Name: "end_time", Kind: KindTime, Nullable: true},
			{Name: "duration_seconds", Kind: KindFloat, Nullable: true},
			{Name: "interaction_count", Kind: KindInt},
			{Name: "device_type", Kind: KindString},
			{Name: "browser", Kind: KindString},
			{Name: "is_mobile", Kind: KindBool},
			{Name: "is_return_user", Kind: KindBool},
		},
	},
	{
		Table: TableInteractions, Key: "interaction_id", OrderBy: "timestamp",
		Columns: []Column{
			{Name: "interaction_id", Kind: KindString},
			{Name: "session_id", Kind: KindString},
			{Name: "timestamp", Kind: KindTime},
			{Name: "query", Kind: KindString},
			{Name: "query_type", Kind: KindString},
			{Name: "response", Kind: KindString},
			{Name: "response_time_ms", Kind: KindInt},
			{Name: "sentiment_score", Kind: KindFloat},
			{Name: "is_successful", Kind: KindBool},
			{Name: "is_fallback", Kind: KindBool},
			{Name: "topics", Kind: KindStrings},
			{Name: "historical_entities", Kind: KindStrings},
			{Name: "feedback_score", Kind: KindInt, Nullable: true},
		},
	},
	{
		Table: TableQueryAnalytics, Key: "query_id", OrderBy: "timestamp",
		Columns: []Column{
			{Name: "query_id", Kind: KindString},
			{Name: "session_id", Kind: KindString},
			{Name: "timestamp", Kind: KindTime},
			{Name: "query", Kind: KindString},
			{Name: "query_length", Kind: KindInt},
			{Name: "query_complexity", Kind: KindFloat},
			{Name: "is_reformulation", Kind: KindBool},
			{Name: "previous_query_id", Kind: KindString, Nullable: true},
			{Name: "topic_cluster", Kind: KindString},
			{Name: "has_followup", Kind: KindBool},
		},
	},
	{
		Table: TableEducationalMetrics, Key: "metric_id", OrderBy: "timestamp",
		Columns: []Column{
			{Name: "metric_id", Kind: KindString},
			{Name: "session_id", Kind: KindString},
			{Name: "timestamp", Kind: KindTime},
			{Name: "topic", Kind: KindString},
			{Name: "exploration_depth", Kind: KindFloat},
			{Name: "time_spent_seconds", Kind: KindFloat},
			{Name: "historical_figures", Kind: KindStrings},
			{Name: "historical_events", Kind: KindStrings},
			{Name: "complexity_progression", Kind: KindFloat},
		},
	},
	{
		Table: TableFeedback, Key: "feedback_id", OrderBy: "timestamp",
		Columns: []Column{
			{Name: "feedback_id", Kind: KindString},
			{Name: "interaction_id", Kind: KindString},
			{Name: "session_id", Kind: KindString},
			{Name: "timestamp", Kind: KindTime},
			{Name: "feedback_score", Kind: KindInt},
		},
	},
}

// Tables lists every analytics table in creation order.
func Tables() []Table {
	out := make([]Table, len(schemas))
	for i, s := range schemas {
		out[i] = s.Table
	}
	return out
}

// SchemaFor returns the schema of t.
func SchemaFor(t Table) (Schema, bool) {
	for _, s := range schemas {
		if s.Table == t {
			return s, true
		}
	}
	return Schema{}, false
}

// ParseTable resolves a user-supplied table name.
func ParseTable(name string) (Table, bool) {
	_, ok := SchemaFor(Table(name))
	return Table(name), ok
}

// Column looks up a column by name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Normalize converts rec into canonical form: every column present, values
// typed as string, int64, float64, bool, time.Time (UTC, microseconds),
// []string or nil. Unknown columns are rejected.
func (s Schema) Normalize(rec Record) (Record, error) {
	for name := range rec {
		if _, ok := s.Column(name); !ok {
			return nil, fmt.Errorf("%s: unknown column %q", s.Table, name)
		}
	}
	out := make(Record, len(s.Columns))
	for _, c := range s.Columns {
		v, err := c.canonical(rec[c.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Table, c.Name, err)
		}
		out[c.Name] = v
	}
	return out, nil
}

// NormalizePatch is Normalize restricted to the columns present in patch.
func (s Schema) NormalizePatch(patch Record) (Record, error) {
	out := make(Record, len(patch))
	for name, raw := range patch {
		c, ok := s.Column(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown column %q", s.Table, name)
		}
		v, err := c.canonical(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Table, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Encode turns canonical values into their persisted representation: times
// become TimeLayout strings, lists stay lists.
func (s Schema) Encode(rec Record) Record {
	out := make(Record, len(rec))
	for name, v := range rec {
		if t, ok := v.(time.Time); ok {
			out[name] = FormatTime(t)
			continue
		}
		out[name] = v
	}
	return out
}

// Matches reports whether the canonical record satisfies filter. Filter
// values are normalized against the column kind before comparison.
func (s Schema) Matches(rec Record, filter Filter) (bool, error) {
	for name, want := range filter {
		c, ok := s.Column(name)
		if !ok {
			return false, fmt.Errorf("%s: unknown filter column %q", s.Table, name)
		}
		cw, err := c.canonical(want)
		if err != nil {
			return false, fmt.Errorf("%s.%s: %w", s.Table, name, err)
		}
		if !valuesEqual(rec[name], cw) {
			return false, nil
		}
	}
	return true, nil
}

// NormalizeFilter converts filter values to canonical form, rejecting
// unknown columns.
func (s Schema) NormalizeFilter(filter Filter) (Filter, error) {
	out := make(Filter, len(filter))
	for name, raw := range filter {
		c, ok := s.Column(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown filter column %q", s.Table, name)
		}
		v, err := c.canonical(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Table, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// Sort orders canonical records by OrderBy then Key, nulls first.
func (s Schema) Sort(rows []Record) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := compareValues(rows[i][s.OrderBy], rows[j][s.OrderBy]); c != 0 {
			return c < 0
		}
		return compareValues(rows[i][s.Key], rows[j][s.Key]) < 0
	})
}

// FormatTime renders t in the persisted layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func (c Column) canonical(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if isTypedNil(v) {
		return nil, nil
	}
	switch c.Kind {
	case KindString:
		return toString(v)
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	case KindTime:
		return toTime(v)
	case KindStrings:
		return toStrings(v)
	}
	return nil, fmt.Errorf("unsupported column kind %d", c.Kind)
}

func isTypedNil(v interface{}) bool {
	switch p := v.(type) {
	case *string:
		return p == nil
	case *int:
		return p == nil
	case *float64:
		return p == nil
	case *time.Time:
		return p == nil
	}
	return false
}

func toString(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case *string:
		return *x, nil
	case []byte:
		return string(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return nil, fmt.Errorf("cannot use %T as string", v)
}

func toInt(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case *int:
		return int64(*x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("non-integral value %v", x)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

func toFloat(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case *float64:
		return *x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	}
	return nil, fmt.Errorf("cannot use %T as float", v)
}

func toBool(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case json.Number:
		return x.String() != "0", nil
	case string:
		return strconv.ParseBool(x)
	case []byte:
		return strconv.ParseBool(string(x))
	}
	return nil, fmt.Errorf("cannot use %T as bool", v)
}

func toTime(v interface{}) (interface{}, error) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		t = *x
	case string:
		parsed, err := parseTime(x)
		if err != nil {
			return nil, err
		}
		t = parsed
	case []byte:
		parsed, err := parseTime(string(x))
		if err != nil {
			return nil, err
		}
		t = parsed
	default:
		return nil, fmt.Errorf("cannot use %T as time", v)
	}
	return t.UTC().Truncate(time.Microsecond), nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// Lists arrive as []string from callers, []interface{} from JSON files and
// JSON text from SQL columns.
func toStrings(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...), nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list element %T is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return decodeStrings(x)
	case []byte:
		return decodeStrings(string(x))
	}
	return nil, fmt.Errorf("cannot use %T as string list", v)
}

func decodeStrings(raw string) (interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []string:
		y, ok := b.([]string)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
