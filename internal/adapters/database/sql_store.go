package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/sqldb"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// SQLStore implements repositories.AnalyticsStore with one table per entity.
// Each call is a single statement; multi-step updates are not wrapped in a
// transaction.
type SQLStore struct {
	client *sqldb.Client
	db     *goqu.Database
}

// NewSQLStore wraps client. Call EnsureSchema before first use.
func NewSQLStore(client *sqldb.Client) *SQLStore {
	return &SQLStore{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

// EnsureSchema creates any missing analytics tables and indexes.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, table := range repositories.Tables() {
		schema, _ := repositories.SchemaFor(table)
		for _, stmt := range schemaStatements(schema) {
			if _, err := s.client.DB().ExecContext(ctx, stmt); err != nil {
				return apperrors.NewStorageError(fmt.Sprintf("failed to create table %s", table), err)
			}
		}
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, table repositories.Table, record repositories.Record) error {
	schema, err := lookup(table)
	if err != nil {
		return err
	}
	rec, err := schema.Normalize(record)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	// Encode times and string lists for the driver
	row, err := toSQLValues(schema, rec)
	if err != nil {
		return apperrors.NewInternalError("failed to encode row", err)
	}

	query, args, err := s.db.Insert(string(table)).Rows(goqu.Record(row)).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to build %s insert query", table), err)
	}
	if _, err := s.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to insert into %s", table), err)
	}
	return nil
}

func (s *SQLStore) UpdateWhere(ctx context.Context, table repositories.Table, filter repositories.Filter, patch repositories.Record) (int, error) {
	schema, err := lookup(table)
	if err != nil {
		return 0, err
	}
	normalized, err := schema.NormalizePatch(patch)
	if err != nil {
		return 0, apperrors.NewValidationError(err.Error())
	}
	// Validate the filter even when there is nothing to set
	where, err := whereClause(schema, filter)
	if err != nil {
		return 0, err
	}
	if len(normalized) == 0 {
		return 0, nil
	}
	set, err := toSQLValues(schema, normalized)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to encode patch", err)
	}

	ds := s.db.Update(string(table)).Set(goqu.Record(set))
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError(fmt.Sprintf("failed to build %s update query", table), err)
	}

	res, err := s.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to update %s", table), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to count updated %s rows", table), err)
	}
	return int(n), nil
}

func (s *SQLStore) Query(ctx context.Context, table repositories.Table, filter repositories.Filter) ([]repositories.Record, error) {
	schema, err := lookup(table)
	if err != nil {
		return nil, err
	}
	where, err := whereClause(schema, filter)
	if err != nil {
		return nil, err
	}

	// Select columns explicitly so scan order matches the schema
	columns := schema.ColumnNames()
	selectCols := make([]interface{}, len(columns))
	for i, c := range columns {
		selectCols[i] = goqu.C(c)
	}
	ds := s.db.From(string(table)).Select(selectCols...)
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	query, args, err := ds.
		Order(goqu.C(schema.OrderBy).Asc(), goqu.C(schema.Key).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to build %s select query", table), err)
	}

	rows, err := s.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to query %s", table), err)
	}
	defer rows.Close()

	out, err := scanRecords(schema, rows, len(columns))
	if err != nil {
		return nil, err
	}
	// NULL ordering differs between engines; re-sort in Go.
	schema.Sort(out)
	return out, nil
}

func (s *SQLStore) ReadAll(ctx context.Context, table repositories.Table) ([]repositories.Record, error) {
	return s.Query(ctx, table, nil)
}

func (s *SQLStore) Close() error {
	return s.client.Close()
}

func lookup(table repositories.Table) (repositories.Schema, error) {
	schema, ok := repositories.SchemaFor(table)
	if !ok {
		return schema, apperrors.NewNotFoundError(fmt.Sprintf("unknown table %q", table))
	}
	return schema, nil
}

func whereClause(schema repositories.Schema, filter repositories.Filter) (goqu.Ex, error) {
	normalized, err := schema.NormalizeFilter(filter)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	values, err := toSQLValues(schema, repositories.Record(normalized))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode filter", err)
	}
	return goqu.Ex(values), nil
}

// toSQLValues encodes canonical values for binding: times as fixed-layout
// text and string lists as JSON text.
func toSQLValues(schema repositories.Schema, rec repositories.Record) (map[string]interface{}, error) {
	encoded := schema.Encode(rec)
	out := make(map[string]interface{}, len(encoded))
	for name, v := range encoded {
		if list, ok := v.([]string); ok {
			data, err := json.Marshal(list)
			if err != nil {
				return nil, err
			}
			v = string(data)
		}
		out[name] = v
	}
	return out, nil
}

func scanRecords(schema repositories.Schema, rows *sql.Rows, width int) ([]repositories.Record, error) {
	columns := schema.ColumnNames()
	var out []repositories.Record
	for rows.Next() {
		// Scan into interface{} and let the schema coerce driver types
		values := make([]interface{}, width)
		ptrs := make([]interface{}, width)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("failed to scan %s row", schema.Table), err)
		}

		raw := make(repositories.Record, width)
		for i, c := range columns {
			raw[c] = values[i]
		}
		rec, err := schema.Normalize(raw)
		if err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("bad %s row", schema.Table), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s rows", schema.Table), err)
	}
	if out == nil {
		out = []repositories.Record{}
	}
	return out, nil
}

// schemaStatements renders portable DDL (valid for SQLite and PostgreSQL).
func schemaStatements(schema repositories.Schema) []string {
	defs := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Columns {
		def := fmt.Sprintf("%q %s", c.Name, sqlType(c.Kind))
		if c.Name == schema.Key {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (\n\t%s\n)", string(schema.Table), strings.Join(defs, ",\n\t")),
	}
	if _, ok := schema.Column("session_id"); ok && schema.Key != "session_id" {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %q ON %q (%q)",
			"idx_"+string(schema.Table)+"_session_id", string(schema.Table), "session_id",
		))
	}
	return stmts
}

func sqlType(kind repositories.ColumnKind) string {
	switch kind {
	case repositories.KindInt:
		return "BIGINT"
	case repositories.KindFloat:
		return "DOUBLE PRECISION"
	case repositories.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

var _ repositories.AnalyticsStore = (*SQLStore)(nil)
