// migrate applies the embedded schema migrations to DATABASE_URL.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ErlanBelekov/auth-starter/config"
	"github.com/ErlanBelekov/auth-starter/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/auth-starter/internal/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("migrations applied")
}
