package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/filestore"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	apperrors "github.com/Noah-Banjo/lr-schoolbot/pkg/errors"
)

const (
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newStore(t *testing.T) repositories.AnalyticsStore {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func readAll(t *testing.T, store repositories.AnalyticsStore, table repositories.Table) []repositories.Record {
	t.Helper()
	rows, err := store.ReadAll(context.Background(), table)
	require.NoError(t, err)
	return rows
}

// flakyStore fails selected operations and delegates the rest.
type flakyStore struct {
	repositories.AnalyticsStore
	failAppend map[repositories.Table]bool
	failUpdate map[repositories.Table]bool
	failRead   bool
}

var errDiskFull = apperrors.NewStorageError("analytics storage unavailable", errors.New("disk full"))

func (s *flakyStore) Append(ctx context.Context, table repositories.Table, rec repositories.Record) error {
	if s.failAppend[table] {
		return errDiskFull
	}
	return s.AnalyticsStore.Append(ctx, table, rec)
}

func (s *flakyStore) UpdateWhere(ctx context.Context, table repositories.Table, filter repositories.Filter, patch repositories.Record) (int, error) {
	if s.failUpdate[table] {
		return 0, errDiskFull
	}
	return s.AnalyticsStore.UpdateWhere(ctx, table, filter, patch)
}

func (s *flakyStore) Query(ctx context.Context, table repositories.Table, filter repositories.Filter) ([]repositories.Record, error) {
	if s.failRead {
		return nil, errDiskFull
	}
	return s.AnalyticsStore.Query(ctx, table, filter)
}

func (s *flakyStore) ReadAll(ctx context.Context, table repositories.Table) ([]repositories.Record, error) {
	if s.failRead {
		return nil, errDiskFull
	}
	return s.AnalyticsStore.ReadAll(ctx, table)
}

// stubChatProvider replies from a script and remembers what it was sent.
type stubChatProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]providers.ChatMessage
}

func (p *stubChatProvider) Complete(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, messages)
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) == 0 {
		return "Central High School integrated in 1957.", nil
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, nil
}

// MockCacheProvider for testing
type MockCacheProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
	gets int
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, nil
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if val, ok := m.data[key]; ok {
		fmt.Sscan(string(val), &n)
	}
	n++
	m.data[key] = []byte(fmt.Sprint(n))
	return n, nil
}

func (m *MockCacheProvider) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
