// cmd/historian/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/lobbyd/internal/cache"
	"github.com/jason-s-yu/lobbyd/internal/config"
	"github.com/jason-s-yu/lobbyd/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("historian exited")
	}
	logger.Info("historian shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
		return fmt.Errorf("the historian needs both a database and REDIS_ADDR")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	if err := store.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	queue := cache.NewQueue(rdb, cfg.AnalyticsQueue)
	hs := NewHistorianService(queue, store.NewEventLog(pool), cfg.HistorianBatchSize, cfg.HistorianFlushDelay, logger)

	logger.WithFields(logrus.Fields{
		"queue":      queue.Name(),
		"batch_size": cfg.HistorianBatchSize,
		"flush":      cfg.HistorianFlushDelay,
	}).Info("historian started")
	return hs.Run(ctx)
}
