package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/mindforge/internal/api"
	"github.com/Harshitk-cp/mindforge/internal/buildconfig"
	"github.com/Harshitk-cp/mindforge/internal/config"
	"github.com/Harshitk-cp/mindforge/internal/domain"
	"github.com/Harshitk-cp/mindforge/internal/llm"
	"github.com/Harshitk-cp/mindforge/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	kv, closeStore := openStore(ctx, logger)
	defer closeStore()

	provider := config.LLMProvider()
	providers := llm.NewProviders(provider, config.APIKeyFor)
	if _, err := llm.NewClient(provider, config.LLMAPIKey()); err != nil {
		logger.Warn("LLM client initialization failed; model calls will fail until configured",
			zap.String("provider", provider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", provider))
	}

	app := api.NewApp(kv, providers, api.Options{
		DefaultProvider:   provider,
		DefaultModel:      config.LLMModel(),
		APIKey:            config.APIKey(),
		RateLimitRPS:      config.RateLimitRPS(),
		RateLimitBurst:    config.RateLimitBurst(),
		EvolutionInterval: config.EvolutionMinInterval(),
		Queue: llm.QueueConfig{
			MaxCalls: config.BackgroundLLMMaxCalls(),
			Window:   config.BackgroundLLMWindow(),
		},
	}, logger)

	if err := app.Agents.EnsureSample(ctx); err != nil {
		logger.Fatal("failed to create sample agent", zap.Error(err))
	}

	app.Expirer.Start()
	defer app.Expirer.Stop()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight background evolutions finish.
	done := make(chan struct{})
	go func() {
		app.Conversations.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("background evolutions still running at exit", zap.Int("queued_calls", app.Queue.Len()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func openStore(ctx context.Context, logger *zap.Logger) (domain.KVStore, func()) {
	switch backend := config.StoreBackend(); backend {
	case "redis":
		kv, err := store.OpenRedis(ctx, config.RedisURL())
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		logger.Info("connected to redis")
		return kv, func() { _ = kv.Close() }

	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required for the postgres store")
		}
		kv, pool, err := store.OpenPostgres(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		logger.Info("connected to database")
		return kv, pool.Close

	case "memory":
		logger.Info("using in-memory store; agents are lost on restart")
		return store.NewMemoryKV(), func() {}

	default:
		logger.Fatal("unknown STORE_BACKEND", zap.String("backend", backend))
		return nil, nil
	}
}
