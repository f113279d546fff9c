package database

import (
	"context"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// InstrumentedStore wraps any AnalyticsStore with a span and a duration
// metric per operation.
type InstrumentedStore struct {
	inner   repositories.AnalyticsStore
	backend string
	metrics *observability.Metrics
}

// NewInstrumentedStore decorates inner. backend names the store in spans.
func NewInstrumentedStore(inner repositories.AnalyticsStore, backend string, metrics *observability.Metrics) repositories.AnalyticsStore {
	return &InstrumentedStore{inner: inner, backend: backend, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op string, table repositories.Table, fn func(ctx context.Context) error) {
	ctx, span := observability.StartSpan(ctx, "analytics."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", s.backend),
		attribute.String("db.table", string(table)),
	)

	start := time.Now()
	err := fn(ctx)
	observability.RecordStorageMetric(ctx, s.metrics, op, string(table), time.Since(start), err)
	observability.RecordError(span, err)
}

func (s *InstrumentedStore) Append(ctx context.Context, table repositories.Table, record repositories.Record) error {
	var err error
	s.observe(ctx, "append", table, func(ctx context.Context) error {
		err = s.inner.Append(ctx, table, record)
		return err
	})
	return err
}

func (s *InstrumentedStore) UpdateWhere(ctx context.Context, table repositories.Table, filter repositories.Filter, patch repositories.Record) (int, error) {
	var (
		n   int
		err error
	)
	s.observe(ctx, "update", table, func(ctx context.Context) error {
		n, err = s.inner.UpdateWhere(ctx, table, filter, patch)
		return err
	})
	return n, err
}

func (s *InstrumentedStore) Query(ctx context.Context, table repositories.Table, filter repositories.Filter) ([]repositories.Record, error) {
	var (
		rows []repositories.Record
		err  error
	)
	s.observe(ctx, "query", table, func(ctx context.Context) error {
		rows, err = s.inner.Query(ctx, table, filter)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) ReadAll(ctx context.Context, table repositories.Table) ([]repositories.Record, error) {
	var (
		rows []repositories.Record
		err  error
	)
	s.observe(ctx, "read_all", table, func(ctx context.Context) error {
		rows, err = s.inner.ReadAll(ctx, table)
		return err
	})
	return rows, err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
