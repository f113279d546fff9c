package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
)

const (
	feedbackRateLimit  = 30
	feedbackRateWindow = time.Hour
)

var errRateLimited = errors.New("rate limit exceeded")

// FeedbackService defines the feedback operations used by the handler.
type FeedbackService interface {
	Submit(ctx context.Context, interactionID string, score int) error
}

// FeedbackHandler handles ratings of bot replies.
type FeedbackHandler struct {
	service FeedbackService
	cache   providers.CacheProvider
	local   *localRateLimiter
}

// NewFeedbackHandler creates a new feedback handler. cache may be nil, in
// which case limits are kept in process.
func NewFeedbackHandler(service FeedbackService, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
	}
}

type feedbackRequest struct {
	InteractionID string `json:"interaction_id"`
	Score         int    `json:"score"`
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.InteractionID = strings.TrimSpace(payload.InteractionID)
	if payload.InteractionID == "" {
		respondWithError(w, http.StatusBadRequest, "interaction_id is required")
		return
	}

	if err := h.submit(r, payload.InteractionID, payload.Score); err != nil {
		if errors.Is(err, errRateLimited) {
			w.Header().Set("Retry-After", strconv.Itoa(int(feedbackRateWindow.Seconds())))
			respondWithError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "received",
	})
}

// submit applies the per-client rate limit, then records the score.
func (h *FeedbackHandler) submit(r *http.Request, interactionID string, score int) error {
	if !h.allowRequest(r.Context(), "feedback:rate:"+clientIP(r)) {
		return errRateLimited
	}
	return h.service.Submit(r.Context(), interactionID, score)
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}

	count, err := h.cache.Incr(ctx, key, int(feedbackRateWindow.Seconds()))
	if err != nil {
		// Redis unavailable, fall back to the in-process limiter
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}
	return count <= feedbackRateLimit
}

// localRateLimiter keeps one token bucket per client. The bucket holds a
// full window's allowance and refills evenly across the window.
type localRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{visitors: make(map[string]*visitor)}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) bool {
	now := time.Now()

	l.mu.Lock()
	// Drop clients idle for a whole window; their bucket would be full again
	if now.Sub(l.lastPrune) > window {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > window {
				delete(l.visitors, k)
			}
		}
		l.lastPrune = now
	}
	// First request from this client gets a full bucket
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	// First hop of X-Forwarded-For is the original client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
