package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

// CacheMiddleware serves cached bodies for static JSON routes.
type CacheMiddleware struct {
	cache   providers.CacheProvider
	metrics *observability.Metrics
	routes  map[string]int
}

// NewCacheMiddleware caches the given exact paths for their TTL in seconds.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, routes map[string]int) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, metrics: metrics, routes: routes}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only cache GET requests on the configured paths
		ttl, ok := m.routes[r.URL.Path]
		if m.cache == nil || r.Method != http.MethodGet || !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := cacheKey(r)

		// Try to get from cache
		if cached, err := m.cache.Get(ctx, key); err == nil && cached != nil {
			observability.RecordCacheResult(ctx, m.metrics, r.URL.Path, true)
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheResult(ctx, m.metrics, r.URL.Path, false)
		w.Header().Set("X-Cache", "MISS")

		// Cache miss, capture the response while serving it
		rec := &teeRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
		next.ServeHTTP(rec, r)

		// Only cache successful, non-empty responses
		if rec.statusCode == http.StatusOK && rec.body.Len() > 0 {
			if err := m.cache.Set(ctx, key, rec.body.Bytes(), ttl); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

func cacheKey(r *http.Request) string {
	// Hash method, path and query into a fixed-length key
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// teeRecorder writes through while keeping a copy of the body.
type teeRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *teeRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *teeRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
