package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/database"
	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/filestore"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/sqldb"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *database.SQLStore {
	t.Helper()
	ctx := context.Background()
	client, err := sqldb.OpenSQLite(ctx, filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)

	store := database.NewSQLStore(client)
	require.NoError(t, store.EnsureSchema(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newJSONStore(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

var base = time.Date(2024, 9, 25, 8, 30, 0, 0, time.UTC)

// exercise runs the same sequence of operations against a backend and
// returns what it reads back.
func exercise(t *testing.T, store repositories.AnalyticsStore) map[string][]repositories.Record {
	t.Helper()
	ctx := context.Background()
	score := 5
	end := base.Add(10 * time.Minute)
	duration := 600.0

	require.NoError(t, store.Append(ctx, repositories.TableSessions, repositories.Record{
		"session_id": "s1", "user_id": "u1", "start_time": base, "interaction_count": 0,
		"device_type": "Desktop", "browser": "Firefox", "is_mobile": false, "is_return_user": true,
	}))
	require.NoError(t, store.Append(ctx, repositories.TableInteractions, repositories.Record{
		"interaction_id": "i2", "session_id": "s1", "timestamp": base.Add(2 * time.Minute),
		"query": "Who was Daisy Bates?", "query_type": "person_question", "response": "A journalist.",
		"response_time_ms": 900, "sentiment_score": 0.0, "is_successful": true, "is_fallback": false,
		"topics": []string{"daisy", "bates"}, "historical_entities": []string{"Daisy Bates"}, "feedback_score": nil,
	}))
	require.NoError(t, store.Append(ctx, repositories.TableInteractions, repositories.Record{
		"interaction_id": "i1", "session_id": "s1", "timestamp": base.Add(time.Minute),
		"query": "What year did Central High integrate?", "query_type": "temporal_question", "response": "1957.",
		"response_time_ms": 1200, "sentiment_score": 0.25, "is_successful": true, "is_fallback": false,
		"topics": []string{"integrate", "central", "year"}, "historical_entities": []string{"Central High"}, "feedback_score": &score,
	}))

	n, err := store.UpdateWhere(ctx, repositories.TableSessions, repositories.Filter{"session_id": "s1"}, repositories.Record{
		"end_time": &end, "duration_seconds": &duration, "interaction_count": 2,
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = store.UpdateWhere(ctx, repositories.TableInteractions, repositories.Filter{"interaction_id": "i2"}, repositories.Record{"feedback_score": 1})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	sessions, err := store.ReadAll(ctx, repositories.TableSessions)
	require.NoError(t, err)
	interactions, err := store.ReadAll(ctx, repositories.TableInteractions)
	require.NoError(t, err)
	successful, err := store.Query(ctx, repositories.TableInteractions, repositories.Filter{"session_id": "s1", "is_successful": true})
	require.NoError(t, err)
	empty, err := store.Query(ctx, repositories.TableFeedback, repositories.Filter{"interaction_id": "i1"})
	require.NoError(t, err)

	return map[string][]repositories.Record{
		"sessions":     sessions,
		"interactions": interactions,
		"successful":   successful,
		"feedback":     empty,
	}
}

func TestSQLStore_MatchesJSONStore(t *testing.T) {
	fromSQL := exercise(t, newSQLiteStore(t))
	fromJSON := exercise(t, newJSONStore(t))

	assert.Equal(t, fromJSON, fromSQL)

	sessions := fromSQL["sessions"]
	require.Len(t, sessions, 1)
	assert.Equal(t, base.Add(10*time.Minute), sessions[0]["end_time"])
	assert.Equal(t, int64(2), sessions[0]["interaction_count"])
	assert.Equal(t, true, sessions[0]["is_return_user"])

	interactions := fromSQL["interactions"]
	require.Len(t, interactions, 2)
	assert.Equal(t, "i1", interactions[0]["interaction_id"])
	assert.Equal(t, []string{"integrate", "central", "year"}, interactions[0]["topics"])
	assert.Equal(t, int64(5), interactions[0]["feedback_score"])
	assert.Equal(t, int64(1), interactions[1]["feedback_score"])
	assert.Len(t, fromSQL["successful"], 2)
	assert.Empty(t, fromSQL["feedback"])
}

func TestBackends_RejectUnknownFilterColumnOnEmptyTable(t *testing.T) {
	backends := map[string]repositories.AnalyticsStore{
		"sqlite": newSQLiteStore(t),
		"json":   newJSONStore(t),
	}
	ctx := context.Background()
	bogus := repositories.Filter{"bogus": "x"}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			rows, err := store.Query(ctx, repositories.TableSessions, bogus)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "query: %v", err)
			assert.Empty(t, rows)

			n, err := store.UpdateWhere(ctx, repositories.TableSessions, bogus, repositories.Record{"interaction_count": 1})
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "update: %v", err)
			assert.Zero(t, n)

			_, err = store.UpdateWhere(ctx, repositories.TableSessions, bogus, repositories.Record{})
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "empty patch: %v", err)
		})
	}
}

func TestSQLStore_QueryNullFilter(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for i, prev := range []interface{}{nil, "q1"} {
		require.NoError(t, store.Append(ctx, repositories.TableQueryAnalytics, repositories.Record{
			"query_id": []string{"q1", "q2"}[i], "session_id": "s1", "timestamp": base.Add(time.Duration(i) * time.Second),
			"query": "q", "query_length": 1, "query_complexity": 0.05, "is_reformulation": false,
			"previous_query_id": prev, "topic_cluster": "general", "has_followup": false,
		}))
	}

	rows, err := store.Query(ctx, repositories.TableQueryAnalytics, repositories.Filter{"previous_query_id": nil})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "q1", rows[0]["query_id"])
}

func TestSQLStore_DuplicateKeyIsStorageError(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	rec := repositories.Record{"feedback_id": "f1", "interaction_id": "i1", "session_id": "s1", "timestamp": base, "feedback_score": 4}

	require.NoError(t, store.Append(ctx, repositories.TableFeedback, rec))
	err := store.Append(ctx, repositories.TableFeedback, rec)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestSQLStore_EnsureSchemaIsIdempotent(t *testing.T) {
	store := newSQLiteStore(t)

	assert.NoError(t, store.EnsureSchema(context.Background()))
}

func TestSQLStore_UnknownColumn(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.Query(context.Background(), repositories.TableSessions, repositories.Filter{"password": "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSQLStore_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO "feedback"`).WillReturnError(errors.New("disk I/O error"))

	store := database.NewSQLStore(sqldb.NewClient(db, sqldb.DialectPostgres))
	err = store.Append(context.Background(), repositories.TableFeedback, repositories.Record{
		"feedback_id": "f1", "interaction_id": "i1", "session_id": "s1", "timestamp": base, "feedback_score": 5,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM "sessions"`).WillReturnError(errors.New("no such table: sessions"))

	store := database.NewSQLStore(sqldb.NewClient(db, sqldb.DialectPostgres))
	rows, err := store.ReadAll(context.Background(), repositories.TableSessions)

	assert.Nil(t, rows)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_UpdateUsesPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE "interactions" SET "feedback_score"=\$1 WHERE .*"interaction_id" = \$2`).
		WithArgs(int64(4), "i1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := database.NewSQLStore(sqldb.NewClient(db, sqldb.DialectPostgres))
	n, err := store.UpdateWhere(context.Background(), repositories.TableInteractions,
		repositories.Filter{"interaction_id": "i1"}, repositories.Record{"feedback_score": 4})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
