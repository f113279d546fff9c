package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/repositories"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

// ClientSession is the per-browser state: an analytics tracker and the chat
// history shown to that browser.
type ClientSession struct {
	Key          string
	Tracker      *SessionTracker
	Conversation *Conversation

	lastSeen time.Time
}

// ClientSessionsConfig configures a ClientSessions registry. Zero Now and
// NewID fall back to time.Now and random UUIDs.
type ClientSessionsConfig struct {
	IdleTimeout time.Duration
	Metrics     *observability.Metrics
	Now         func() time.Time
	NewID       func() string
}

// ClientSessions maps browser keys to their sessions. Idle sessions are ended
// lazily whenever the registry is touched.
type ClientSessions struct {
	store repositories.AnalyticsStore
	chat  *ChatService
	idle  time.Duration
	now   func() time.Time
	opts  []TrackerOption

	mu      sync.Mutex
	entries map[string]*ClientSession
}

// NewClientSessions creates an empty registry.
func NewClientSessions(store repositories.AnalyticsStore, chat *ChatService, cfg ClientSessionsConfig) *ClientSessions {
	r := &ClientSessions{
		store:   store,
		chat:    chat,
		idle:    cfg.IdleTimeout,
		now:     time.Now,
		entries: make(map[string]*ClientSession),
	}
	if cfg.Now != nil {
		r.now = cfg.Now
		r.opts = append(r.opts, WithClock(cfg.Now))
	}
	if cfg.NewID != nil {
		r.opts = append(r.opts, WithIDGenerator(cfg.NewID))
	}
	if cfg.Metrics != nil {
		r.opts = append(r.opts, WithMetrics(cfg.Metrics))
	}
	return r
}

// Open returns the active session for key, starting one when the key is new,
// idle or closed.
func (r *ClientSessions) Open(ctx context.Context, key string, client ClientInfo) (*ClientSession, error) {
	r.sweep(ctx, key)

	r.mu.Lock()
	cs, ok := r.entries[key]
	if !ok {
		cs = &ClientSession{
			Key:          key,
			Tracker:      NewSessionTracker(r.store, r.opts...),
			Conversation: r.chat.NewConversation(),
		}
		r.entries[key] = cs
	}
	cs.lastSeen = r.now()
	r.mu.Unlock()

	if cs.Tracker.State() == StateActive {
		return cs, nil
	}
	if cs.Tracker.State() == StateClosed {
		cs.Conversation.Reset()
	}
	if _, err := cs.Tracker.StartSession(ctx, client); err != nil {
		return cs, err
	}
	return cs, nil
}

// Lookup returns the session for key without creating one.
func (r *ClientSessions) Lookup(key string) (*ClientSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.entries[key]
	return cs, ok
}

// End closes the session for key and forgets it. Unknown keys are ignored.
func (r *ClientSessions) End(ctx context.Context, key string) error {
	r.mu.Lock()
	cs, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return cs.Tracker.EndSession(ctx)
}

// EndAll closes every session. Used on shutdown.
func (r *ClientSessions) EndAll(ctx context.Context) error {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*ClientSession)
	r.mu.Unlock()

	var errs []error
	for _, cs := range all {
		if err := cs.Tracker.EndSession(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many browsers are tracked.
func (r *ClientSessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// sweep ends sessions idle for longer than the timeout, except keep.
func (r *ClientSessions) sweep(ctx context.Context, keep string) {
	if r.idle <= 0 {
		return
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []*ClientSession
	for key, cs := range r.entries {
		if key != keep && cs.lastSeen.Before(cutoff) {
			stale = append(stale, cs)
			delete(r.entries, key)
		}
	}
	keepEntry, hasKeep := r.entries[keep]
	r.mu.Unlock()

	for _, cs := range stale {
		if err := cs.Tracker.EndSession(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("client", cs.Key).Msg("failed to end idle session")
		}
	}
	// A returning browser past the timeout starts a fresh session.
	if hasKeep && keepEntry.lastSeen.Before(cutoff) {
		if err := keepEntry.Tracker.EndSession(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("client", keep).Msg("failed to end idle session")
		}
	}
}
