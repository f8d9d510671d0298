package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"

	"github.com/forgo/worship/api/internal/app"
	"github.com/forgo/worship/api/internal/authz"
	"github.com/forgo/worship/api/internal/config"
	"github.com/forgo/worship/api/internal/handler"
	"github.com/forgo/worship/api/internal/jobs"
	"github.com/forgo/worship/api/internal/middleware"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	authorizer, err := authz.New()
	if err != nil {
		slog.Error("failed to load authorization policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Rate limiting. The global limiter runs ahead of authentication, so it
	// keys every caller by remote IP.
	var globalLimiter, authLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient := rateLimitRedis(ctx, cfg)
		if redisClient != nil {
			defer func() { _ = redisClient.Close() }()
		}
		globalStore := rateLimitStore(redisClient, "worship:ratelimit")
		authStore := rateLimitStore(redisClient, "worship:ratelimit:auth")
		globalLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: int(cfg.RateLimit.GlobalPerMin),
			Period:   time.Minute,
			Prefix:   "worship:ratelimit",
			Store:    globalStore,
		})
		authLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: int(cfg.RateLimit.AuthPerMin),
			Period:   time.Minute,
			Prefix:   "worship:ratelimit:auth",
			Store:    authStore,
		})
	}

	// Background jobs
	var running []interface{ Stop() }
	if cfg.Jobs.Enabled {
		reminders := jobs.NewReminderProcessor(jobs.ReminderConfig{
			Reminders:    a.Reminders,
			Notifier:     a.Services.Notifications,
			Interval:     cfg.Jobs.ReminderInterval,
			Lead:         cfg.Jobs.ReminderLead,
			InitialDelay: 5 * time.Second,
		})
		expirer := jobs.NewSlotExpirer(a.Services.Suggestions, cfg.Jobs.SlotExpiryInterval, 5*time.Second)
		cleanup := jobs.NewTokenCleanup(a.Services.Tokens, cfg.Jobs.TokenCleanupInterval, time.Minute)

		reminders.Start()
		expirer.Start()
		cleanup.Start()
		running = append(running, reminders, expirer, cleanup)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := handler.NewRouter(handler.RouterConfig{
		Services:    a.Services,
		Tokens:      a.Services.Tokens,
		Authorizer:  authorizer,
		DB:          a.DB,
		Version:     version,
		AuthLimiter: authLimiter,
		MetricsPath: metricsPath,
	})

	// Apply global middleware. Metrics must wrap the mux directly so the
	// matched route pattern is visible after it returns.
	global := []middleware.Middleware{
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	}
	if globalLimiter != nil {
		global = append(global, middleware.RateLimit(globalLimiter))
	}
	global = append(global, middleware.Metrics)
	wrapped := middleware.Chain(router, global...)

	// Create HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           wrapped,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("version", version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		slog.Error("server error", slog.String("error", err.Error()))
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	for _, job := range running {
		job.Stop()
	}

	slog.Info("server exited")
}

// rateLimitRedis connects the shared limiter client when the redis store is
// configured. It returns nil for the memory store or when redis is
// unreachable, in which case the limiters fall back to memory.
func rateLimitRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RateLimit.Store != "redis" {
		return nil
	}
	client, err := middleware.ConnectRedis(ctx, cfg.RateLimit.RedisURL)
	if err != nil {
		slog.Warn("redis rate limit store unavailable, using memory",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return client
}

func rateLimitStore(client *redis.Client, prefix string) limiter.Store {
	if client == nil {
		return middleware.NewMemoryStore(prefix)
	}
	store, err := middleware.NewRedisStore(client, prefix)
	if err != nil {
		slog.Warn("redis rate limit store failed, using memory",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		return middleware.NewMemoryStore(prefix)
	}
	return store
}
