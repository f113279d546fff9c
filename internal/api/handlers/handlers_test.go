package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/filestore"
	"github.com/Noah-Banjo/lr-schoolbot/internal/api/handlers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
)

type stubChatProvider struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (p *stubChatProvider) Complete(ctx context.Context, messages []providers.ChatMessage) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

// testApp wires the real services over a JSON store in a temp dir.
type testApp struct {
	store     repositories.AnalyticsStore
	provider  *stubChatProvider
	sessions  *services.ClientSessions
	clients   *handlers.ClientResolver
	chat      *handlers.ChatHandler
	feedback  *handlers.FeedbackHandler
	pages     *handlers.PageHandler
	dashboard *handlers.DashboardHandler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	provider := &stubChatProvider{reply: "Central High was integrated in September 1957."}
	chatService := services.NewChatService(provider, "You are SchoolBot.")
	sessions := services.NewClientSessions(store, chatService, services.ClientSessionsConfig{})
	clients := handlers.NewClientResolver(sessions, false)
	feedback := handlers.NewFeedbackHandler(services.NewFeedbackService(store), nil)

	pages, err := handlers.NewPageHandler(chatService, clients, feedback)
	require.NoError(t, err)
	dashboard, err := handlers.NewDashboardHandler(services.NewDashboardService(store, nil, nil))
	require.NoError(t, err)

	return &testApp{
		store:     store,
		provider:  provider,
		sessions:  sessions,
		clients:   clients,
		chat:      handlers.NewChatHandler(chatService, clients),
		feedback:  feedback,
		pages:     pages,
		dashboard: dashboard,
	}
}

func (a *testApp) failChat(err error) {
	a.provider.mu.Lock()
	defer a.provider.mu.Unlock()
	a.provider.err = err
}

var errUpstream = errors.New("upstream unavailable")

func jsonRequest(method, target, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func formRequest(target, body string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func readTable(t *testing.T, store repositories.AnalyticsStore, table repositories.Table) []repositories.Record {
	t.Helper()
	rows, err := store.ReadAll(context.Background(), table)
	require.NoError(t, err)
	return rows
}
