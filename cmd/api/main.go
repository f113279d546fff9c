package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/cache"
	"github.com/Noah-Banjo/lr-schoolbot/internal/adapters/database"
	"github.com/Noah-Banjo/lr-schoolbot/internal/api/handlers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/api/middleware"
	"github.com/Noah-Banjo/lr-schoolbot/internal/api/routes"
	"github.com/Noah-Banjo/lr-schoolbot/internal/application/services"
	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/providers"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/openai"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/clients/redis"
	"github.com/Noah-Banjo/lr-schoolbot/internal/infrastructure/observability"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/config"
	"github.com/Noah-Banjo/lr-schoolbot/pkg/secrets"
)

// Routes whose responses are shared by every visitor, with their TTL in seconds.
var cachedRoutes = map[string]int{
	"/api/locations": 3600,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Secrets must be in the environment before config reads it.
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Msg("Failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		log.Info().Str("path", vaultResult.Path).Strs("loaded", vaultResult.Loaded).Strs("skipped", vaultResult.Skipped).Msg("Vault secrets applied")
	}

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics (no-op provider when OTEL is disabled)
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Open analytics storage
	store, err := database.OpenStore(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open analytics storage")
	}
	defer store.Close()
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Analytics storage ready")

	// Redis is optional: without it the dashboard recomputes every summary
	// and rate limits are kept per process.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; continuing without cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "schoolbot:")
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache initialized")
		}
	}

	// Initialize OpenAI client
	chatClient, err := openai.NewClient(&cfg.OpenAI, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize OpenAI client")
	}

	// Initialize services
	chatService := services.NewChatService(chatClient, openai.SystemPrompt)
	sessions := services.NewClientSessions(store, chatService, services.ClientSessionsConfig{
		IdleTimeout: cfg.Session.IdleTimeout,
		Metrics:     metrics,
	})
	feedbackService := services.NewFeedbackService(store)
	dashboardService := services.NewDashboardService(store, cacheProvider, metrics)

	// Initialize handlers
	clients := handlers.NewClientResolver(sessions, cfg.Session.SecureCookie)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cacheProvider)
	pageHandler, err := handlers.NewPageHandler(chatService, clients, feedbackHandler)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load page templates")
	}
	dashboardHandler, err := handlers.NewDashboardHandler(dashboardService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load dashboard templates")
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics, cachedRoutes)
	}

	router := routes.NewRouter(
		pageHandler,
		handlers.NewChatHandler(chatService, clients),
		feedbackHandler,
		handlers.NewLocationHandler(),
		dashboardHandler,
		routes.Options{
			DashboardPassword: cfg.Dashboard.Password,
			AllowedOrigins:    cfg.Server.AllowedOrigins,
			CacheMiddleware:   cacheMiddleware,
			Metrics:           metrics,
		},
	)

	// Create HTTP server. Writes must outlast the slowest model call.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Str("model", chatClient.Model()).Msg("SchoolBot starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close out open sessions so their duration and interaction count are kept.
	if err := sessions.EndAll(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to end open sessions")
	}

	log.Info().Msg("Server stopped")
}
