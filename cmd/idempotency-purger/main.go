package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-order-service/internal/app/api"
	orderpostgres "github.com/Apurer/go-gin-order-service/internal/domains/orders/adapters/persistence/postgres"
	platformpostgres "github.com/Apurer/go-gin-order-service/internal/platform/postgres"
)

// Deletes PostgreSQL idempotency keys older than idempotency.ttl. Redis keys expire on their own.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.Open(ctx, cfg.Postgres.DSN, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge idempotency keys")
	}

	cutoff := time.Now().UTC().Add(-cfg.Idempotency.TTL)
	removed, err := orderpostgres.NewIdempotencyStore(db).PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("failed to purge idempotency keys: %v", err)
	}
	logger.Info("idempotency purge completed", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
}
