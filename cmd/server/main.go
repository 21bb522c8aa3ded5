package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/epistate/internal/api"
	mw "github.com/Harshitk-cp/epistate/internal/api/middleware"
	"github.com/Harshitk-cp/epistate/internal/buildconfig"
	"github.com/Harshitk-cp/epistate/internal/config"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/Harshitk-cp/epistate/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(config.ZapLevel())
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	if err := store.Migrate(ctx, pool, config.MigrationsPath(), logger); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	k, err := config.LoadKnowledge(config.KnowledgeFile())
	if err != nil {
		logger.Fatal("failed to load knowledge file", zap.Error(err))
	}

	suite, err := service.Bootstrap(ctx, k, service.Stores{
		Facts:      store.NewFactStore(pool),
		States:     store.NewStateStore(pool),
		Concepts:   store.NewConceptStore(pool),
		References: store.NewReferenceStore(pool),
	}, config.BatchConcurrency(), logger)
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}

	app := api.NewApp(pool, api.Services{
		Entities:   suite.Entities,
		Concepts:   suite.Concepts,
		References: suite.References,
		Knowledge:  suite.Knowledge,
	}, api.Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	if key := config.APIKey(); key != "" {
		logger.Info("bearer authentication enabled", zap.String("key_fingerprint", mw.KeyFingerprint(key)))
	} else {
		logger.Warn("API_KEY not set, /v1 is unauthenticated")
	}

	// Background cleanup of idle rate limiters
	go app.RateLimiter.Run(ctx, 10*time.Minute)

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
		logger.Info("server starting", zap.String("addr", addr), zap.String("version", buildconfig.String()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
