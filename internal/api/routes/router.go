package routes

import (
	"net/http"

	"github.com/Noah-Banjo/lr-schoolbot/internal/api/handlers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/api/middleware"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	pageHandler      *handlers.PageHandler
	chatHandler      *handlers.ChatHandler
	feedbackHandler  *handlers.FeedbackHandler
	locationHandler  *handlers.LocationHandler
	dashboardHandler *handlers.DashboardHandler

	dashboardPassword string
	allowedOrigins    []string
	cacheMiddleware   *middleware.CacheMiddleware
	metrics           *observability.Metrics
}

// Options carries the cross-cutting settings the router applies.
type Options struct {
	DashboardPassword string
	AllowedOrigins    []string
	CacheMiddleware   *middleware.CacheMiddleware
	Metrics           *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	pageHandler *handlers.PageHandler,
	chatHandler *handlers.ChatHandler,
	feedbackHandler *handlers.FeedbackHandler,
	locationHandler *handlers.LocationHandler,
	dashboardHandler *handlers.DashboardHandler,
	opts Options,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		pageHandler:      pageHandler,
		chatHandler:      chatHandler,
		feedbackHandler:  feedbackHandler,
		locationHandler:  locationHandler,
		dashboardHandler: dashboardHandler,

		dashboardPassword: opts.DashboardPassword,
		allowedOrigins:    opts.AllowedOrigins,
		cacheMiddleware:   opts.CacheMiddleware,
		metrics:           opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Pages
	r.mux.HandleFunc("GET /{$}", r.pageHandler.Home)
	r.mux.HandleFunc("GET /chat", r.pageHandler.Chat)
	r.mux.HandleFunc("POST /chat", r.pageHandler.SendMessage)
	r.mux.HandleFunc("POST /chat/feedback", r.pageHandler.Feedback)
	r.mux.HandleFunc("GET /locations", r.pageHandler.Locations)
	r.mux.HandleFunc("GET /about", r.pageHandler.About)
	r.mux.HandleFunc("GET /sources", r.pageHandler.Sources)

	// Chat API. Each call resolves the visitor's session from cookies.
	r.mux.HandleFunc("POST /api/chat", r.chatHandler.Chat)
	r.mux.HandleFunc("POST /api/session/end", r.chatHandler.EndSession)
	r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/locations", r.locationHandler.ListLocations)

	// Dashboard, behind the password gate
	gate := middleware.DashboardAuth(r.dashboardPassword)
	r.mux.Handle("GET /dashboard", gate(http.HandlerFunc(r.dashboardHandler.Dashboard)))
	r.mux.Handle("GET /api/dashboard/summary", gate(http.HandlerFunc(r.dashboardHandler.Summary)))
	r.mux.Handle("GET /dashboard/tables/{table}", gate(http.HandlerFunc(r.dashboardHandler.BrowseTable)))
	r.mux.Handle("GET /dashboard/tables/{table}/export.csv", gate(http.HandlerFunc(r.dashboardHandler.ExportCSV)))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	// Metrics see the matched route pattern set by the mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
