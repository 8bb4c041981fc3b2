package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/event-fanout/internal/api"
	"github.com/notifyhub/event-fanout/internal/caller"
	"github.com/notifyhub/event-fanout/internal/config"
	"github.com/notifyhub/event-fanout/internal/db"
	"github.com/notifyhub/event-fanout/internal/metrics"
	"github.com/notifyhub/event-fanout/internal/ratelimiter"
	"github.com/notifyhub/event-fanout/internal/repository"
	"github.com/notifyhub/event-fanout/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := repository.NewPgDispatchRepository(pool)
	httpCaller := caller.NewHTTPCaller(cfg.CallerTimeout)
	limiter := ratelimiter.New(cfg.APIRateLimit)

	onDelivered, onRunFinished := m.ServiceHooks()
	svc := service.NewDispatchService(repo, httpCaller, logger, service.MetricHooks{
		OnDelivered:   onDelivered,
		OnRunFinished: onRunFinished,
	})

	// ---- HTTP server ----
	router := api.NewRouter(svc, limiter, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// Stop accepting new requests and let in-flight dispatches finish.
	// A dispatch runs synchronously inside its request, so draining the
	// server drains all outgoing work too.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
