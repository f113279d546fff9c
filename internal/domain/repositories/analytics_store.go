package repositories

import (
	"context"
)

// Table names an analytics table (or a JSON file in the flat-file backend).
type Table string

const (
	TableSessions           Table = "sessions"
	TableInteractions       Table = "interactions"
	TableQueryAnalytics     Table = "query_analytics"
	TableEducationalMetrics Table = "educational_metrics"
	TableFeedback           Table = "feedback"
)

// Record is one row keyed by column name. Values read from a store are in
// canonical form (see Schema.Normalize).
type Record map[string]interface{}

// Filter selects rows whose columns equal every given value. A nil value
// matches NULL. An empty filter matches every row.
type Filter map[string]interface{}

// AnalyticsStore is the storage contract shared by the flat-file and SQL
// backends. Both must return identical logical results: rows in canonical
// form, ordered by the table's order column and then its key.
type AnalyticsStore interface {
	Append(ctx context.Context, table Table, record Record) error
	UpdateWhere(ctx context.Context, table Table, filter Filter, patch Record) (int, error)
	Query(ctx context.Context, table Table, filter Filter) ([]Record, error)
	ReadAll(ctx context.Context, table Table) ([]Record, error)
	Close() error
}
