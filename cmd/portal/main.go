package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshpress/portal-bff-go/internal/config"
	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/handler"
	"github.com/freshpress/portal-bff-go/internal/infra/backend"
	"github.com/freshpress/portal-bff-go/internal/infra/cache"
	"github.com/freshpress/portal-bff-go/internal/infra/observability"
	"github.com/freshpress/portal-bff-go/internal/infra/redisx"
	"github.com/freshpress/portal-bff-go/internal/infra/resilience"
	"github.com/freshpress/portal-bff-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_base_url", cfg.BackendBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("verify_timeout", cfg.VerifyTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "freshpress-portal")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	statsCache := cache.New[*domain.AdminStats](cfg.CacheTTL)
	revenueCache := cache.New[[]domain.RevenuePoint](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("backend-api")

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := backend.NewClient(httpClient, cfg.BackendBaseURL, cb, resilienceCfg, logger)

	// --- Session persistence ---
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword)
	defer rdb.Close()
	var storage session.Storage = redisx.NewSessionStorage(rdb)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, sessions will not survive restarts",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		storage = session.NewMemoryStorage()
	}
	cancelPing()
	sessions := session.NewManager(storage, cfg.SessionTTL, logger, metrics)
	defer sessions.Close()

	// --- Router ---
	// The realtime channel stays open far longer than an API call, so it
	// gets its own client without the request timeout.
	eventsClient := &http.Client{}
	router := handler.NewRouter(handler.Deps{
		Auth:           api,
		Profile:        api,
		Wallet:         api,
		Verifier:       api,
		Orders:         api,
		Admin:          api,
		Sessions:       sessions,
		StatsCache:     statsCache,
		RevenueCache:   revenueCache,
		EventsClient:   eventsClient,
		EventsURL:      api.BaseURL(),
		VerifyTimeout:  cfg.VerifyTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		Ping:           api.Ping,
		Metrics:        metrics,
		Logger:         logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // the /api/events stream must outlive any write deadline
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
