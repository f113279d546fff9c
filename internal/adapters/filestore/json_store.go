// Package filestore persists analytics tables as one JSON array per file.
//
// Every write reads the whole file, modifies it in memory and rewrites it.
// There is no locking: concurrent writers can lose updates and the last
// writer wins. Use the SQL backend when several processes share the data.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

// Store implements repositories.AnalyticsStore on a directory of JSON files.
type Store struct {
	dir string
}

// New creates dir if needed and initializes every table file to an empty array.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create analytics directory", err)
	}
	s := &Store{dir: dir}
	for _, table := range repositories.Tables() {
		path := s.path(table)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, apperrors.NewStorageError(fmt.Sprintf("failed to initialize %s", filepath.Base(path)), err)
			}
		}
	}
	return s, nil
}

// Dir returns the directory holding the table files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(table repositories.Table) string {
	return filepath.Join(s.dir, string(table)+".json")
}

func (s *Store) Append(ctx context.Context, table repositories.Table, record repositories.Record) error {
	schema, rows, err := s.load(ctx, table)
	if err != nil {
		return err
	}
	rec, err := schema.Normalize(record)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	for _, row := range rows {
		if row[schema.Key] == rec[schema.Key] {
			return apperrors.NewConflictError(fmt.Sprintf("%s %v already exists", schema.Key, rec[schema.Key]))
		}
	}
	return s.save(table, schema, append(rows, rec))
}

func (s *Store) UpdateWhere(ctx context.Context, table repositories.Table, filter repositories.Filter, patch repositories.Record) (int, error) {
	schema, rows, err := s.load(ctx, table)
	if err != nil {
		return 0, err
	}
	normalized, err := schema.NormalizePatch(patch)
	if err != nil {
		return 0, apperrors.NewValidationError(err.Error())
	}
	// Reject bad filters up front so an empty table fails the same way the
	// SQL backend does.
	if _, err := schema.NormalizeFilter(filter); err != nil {
		return 0, apperrors.NewValidationError(err.Error())
	}

	updated := 0
	for _, row := range rows {
		ok, err := schema.Matches(row, filter)
		if err != nil {
			return 0, apperrors.NewValidationError(err.Error())
		}
		if !ok {
			continue
		}
		for k, v := range normalized {
			row[k] = v
		}
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, s.save(table, schema, rows)
}

func (s *Store) Query(ctx context.Context, table repositories.Table, filter repositories.Filter) ([]repositories.Record, error) {
	schema, rows, err := s.load(ctx, table)
	if err != nil {
		return nil, err
	}
	if _, err := schema.NormalizeFilter(filter); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	out := make([]repositories.Record, 0, len(rows))
	for _, row := range rows {
		ok, err := schema.Matches(row, filter)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		if ok {
			out = append(out, row)
		}
	}
	schema.Sort(out)
	return out, nil
}

func (s *Store) ReadAll(ctx context.Context, table repositories.Table) ([]repositories.Record, error) {
	return s.Query(ctx, table, nil)
}

// Close is a no-op; files are not held open between calls.
func (s *Store) Close() error {
	return nil
}

// load reads a table file. A file removed after New reads as an empty table.
func (s *Store) load(ctx context.Context, table repositories.Table) (repositories.Schema, []repositories.Record, error) {
	schema, ok := repositories.SchemaFor(table)
	if !ok {
		return schema, nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown table %q", table))
	}
	if err := ctx.Err(); err != nil {
		return schema, nil, apperrors.NewStorageError("request cancelled", err)
	}

	data, err := os.ReadFile(s.path(table))
	if errors.Is(err, fs.ErrNotExist) {
		return schema, nil, nil
	}
	if err != nil {
		return schema, nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", table), err)
	}

	var raw []map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return schema, nil, apperrors.NewStorageError(fmt.Sprintf("malformed %s.json", table), err)
	}

	rows := make([]repositories.Record, 0, len(raw))
	for i, r := range raw {
		rec, err := schema.Normalize(r)
		if err != nil {
			return schema, nil, apperrors.NewStorageError(fmt.Sprintf("bad row %d in %s.json", i, table), err)
		}
		rows = append(rows, rec)
	}
	return schema, rows, nil
}

func (s *Store) save(table repositories.Table, schema repositories.Schema, rows []repositories.Record) error {
	encoded := make([]repositories.Record, len(rows))
	for i, r := range rows {
		encoded[i] = schema.Encode(r)
	}
	data, err := json.MarshalIndent(encoded, "", "  ")
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to encode %s", table), err)
	}
	if err := os.WriteFile(s.path(table), data, 0o644); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to write %s", table), err)
	}
	return nil
}

var _ repositories.AnalyticsStore = (*Store)(nil)
