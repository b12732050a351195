package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/auth-starter/config"
	"github.com/ErlanBelekov/auth-starter/internal/health"
	"github.com/ErlanBelekov/auth-starter/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/auth-starter/internal/log"
	"github.com/ErlanBelekov/auth-starter/internal/metrics"
	"github.com/ErlanBelekov/auth-starter/internal/sweeper"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, health.Dependency{Name: "postgres", Pinger: pool})

	sw := sweeper.New(
		postgres.NewUserRepository(pool),
		postgres.NewRefreshTokenRepository(pool),
		cfg.UnconfirmedGrace,
		logger,
	)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	// One pass at startup so a freshly deployed sweeper does not wait a full
	// interval.
	if err := sw.Sweep(ctx); err != nil {
		logger.Error("initial sweep", "error", err)
	}

	if err := sw.Start(ctx, cfg.SweepSchedule); err != nil {
		stop()
		log.Fatalf("sweeper: %v", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
