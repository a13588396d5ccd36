// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/jason-s-yu/lobbyd/internal/cache"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/config"
	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/handlers"
	"github.com/jason-s-yu/lobbyd/internal/observers"
	"github.com/jason-s-yu/lobbyd/internal/realtime"
	"github.com/jason-s-yu/lobbyd/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func newSigner(cfg config.Config) (*auth.Signer, error) {
	ttl, err := auth.ParseTokenTTL(cfg.TokenExpireTime)
	if err != nil {
		return nil, err
	}
	if cfg.JWTPrivateKeyPath != "" {
		return auth.NewSignerFromFiles(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, ttl)
	}
	return auth.NewSigner(ttl)
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}
	if cfg.JWTPrivateKeyPath == "" {
		logger.Warn("no JWT key files configured; sessions will not survive a restart")
	}

	memory := store.NewMemoryStore()
	var (
		durable  store.Repository
		recorder observers.AuditRecorder
		history  handlers.HistorySource
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		durable = store.NewPostgresStore(pool)
		eventLog := store.NewEventLog(pool)
		recorder, history = eventLog, eventLog
		logger.Info("connected to PostgreSQL")
	} else {
		durable = store.NewMemoryStore()
		logger.Warn("no database configured; started games are kept in memory only")
	}
	repo := store.NewDualStore(memory, durable, store.NewMigrator(memory, durable, logger))

	hub := realtime.NewHub(realtime.DefaultSubscriptionBuffer, logger)
	bus := events.NewBus(events.WithHandlerTimeout(cfg.EventHandlerTimeout), events.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)

	var transport realtime.Transport = hub
	var analytics []observers.Observer
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()

		// events go out through redis and come back in through the relay, so
		// every instance's websocket clients see them exactly once
		rt := realtime.NewRedisTransport(rdb, cfg.RedisChannelPrefix, logger)
		transport = rt
		g.Go(func() error { return rt.Relay(ctx, hub) })

		// the historian persists the queue, so the audit handler only logs
		analytics = append(analytics, observers.NewAnalyticsHandler(cache.NewQueue(rdb, cfg.AnalyticsQueue)))
		recorder = nil
		logger.WithField("addr", cfg.RedisAddr).Info("connected to Redis")
	}

	observers.Register(bus, append([]observers.Observer{
		observers.NewAuditHandler(logger, recorder),
		observers.NewRuleCheckHandler(),
		observers.NewBroadcastHandler(transport),
	}, analytics...)...)

	svc := commands.NewService(repo, bus, commands.WithLogger(logger))
	api := handlers.NewAPI(svc, signer, hub, bus, logger)
	api.History = history

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// websocket streams end when ctx does
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("lobby service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
