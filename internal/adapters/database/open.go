package database

import (
	"context"
	"fmt"

	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/filestore"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/sqldb"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
)

// OpenStore opens the analytics backend selected by cfg.Storage.Backend and
// wraps it with tracing. SQL backends get their schema created on open.
func OpenStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (repositories.AnalyticsStore, error) {
	var (
		store repositories.AnalyticsStore
		err   error
	)

	switch cfg.Storage.Backend {
	case config.StorageJSON:
		store, err = filestore.New(cfg.Storage.DataDir)
	case config.StorageSQLite:
		store, err = openSQL(ctx, func(ctx context.Context) (*sqldb.Client, error) {
			return sqldb.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		})
	case config.StoragePostgres:
		store, err = openSQL(ctx, func(ctx context.Context) (*sqldb.Client, error) {
			return sqldb.OpenPostgres(ctx, &cfg.Database)
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewInstrumentedStore(store, cfg.Storage.Backend, metrics), nil
}

func openSQL(ctx context.Context, open func(ctx context.Context) (*sqldb.Client, error)) (repositories.AnalyticsStore, error) {
	client, err := open(ctx)
	if err != nil {
		return nil, err
	}

	store := NewSQLStore(client)
	if err := store.EnsureSchema(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create analytics schema: %w", err)
	}
	return store, nil
}
