// Package sqldb opens the relational analytics database: an embedded SQLite
// file by default, or PostgreSQL for shared deployments.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/retry"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// goqu dialect names.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Client wraps a database handle together with the SQL dialect it speaks.
type Client struct {
	db      *sql.DB
	dialect string
}

// NewClient wraps an existing handle. Used by tests with sqlmock.
func NewClient(db *sql.DB, dialect string) *Client {
	return &Client{db: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) a single-file database. SQLite allows
// one writer at a time, so the pool is limited to a single connection.
func OpenSQLite(ctx context.Context, path string) (*Client, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("sqlite pragma not applied")
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database at %s: %w", path, err)
	}
	return &Client{db: db, dialect: DialectSQLite}, nil
}

// OpenPostgres connects to PostgreSQL, waiting for it to accept connections.
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = retry.Do(ctx, retry.DefaultConfig(), "PostgreSQL",
		func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("PostgreSQL not ready")
		},
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to PostgreSQL")
	return &Client{db: db, dialect: DialectPostgres}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name for this database.
func (c *Client) Dialect() string {
	return c.dialect
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}
