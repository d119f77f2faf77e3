// Command dashboard serves the battle analytics dashboard API in front of
// the extraction backend.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pokebattlelogger/dashboard-api/internal/backend"
	"github.com/pokebattlelogger/dashboard-api/internal/cache"
	"github.com/pokebattlelogger/dashboard-api/internal/config"
	"github.com/pokebattlelogger/dashboard-api/internal/handlers"
	"github.com/pokebattlelogger/dashboard-api/internal/logic"
	"github.com/pokebattlelogger/dashboard-api/internal/session"
	"github.com/pokebattlelogger/dashboard-api/internal/sprite"
	"github.com/pokebattlelogger/dashboard-api/internal/storage"
	"github.com/pokebattlelogger/dashboard-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if missing := cfg.Missing(); len(missing) > 0 {
		sugar.Warnw("Required settings missing; dependent endpoints will answer 503", "missing", missing)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Pinger{}

	// Response cache
	var store cache.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		redisStore := cache.NewRedisStore(rdb)
		store = redisStore
		checks["redis"] = redisStore
	} else {
		sugar.Infow("REDIS_URL not set, caching in memory")
		store = cache.NewMemoryStore()
	}

	// Season preferences
	var persister session.Persister
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := session.Migrate(pool); err != nil {
			return err
		}
		persister = session.NewPostgresStore(pool)
		checks["postgres"] = handlers.PingFunc(pool.Ping)
	} else {
		sugar.Infow("POSTGRES_URL not set, season preferences kept in memory")
		persister = session.NewMemoryPersister()
	}
	seasons := session.NewSeasonStore(persister, sugar)

	// Unlabeled capture storage
	var objects storage.ObjectStore
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			sugar.Warnw("Object storage unavailable, labeling images disabled", "bucket", cfg.GCSBucket, "error", err)
		} else {
			defer gcs.Close()
			objects = gcs
		}
	}

	table, err := sprite.LoadTable()
	if err != nil {
		return fmt.Errorf("load pokemon names: %w", err)
	}
	sprites := sprite.NewResolver(table, cfg.SpriteBaseURL)

	client := backend.NewClient(backend.Config{
		Host:          cfg.BackendHost,
		WebsocketHost: cfg.BackendWebsocketHost,
		Timeout:       cfg.BackendTimeout,
	})

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
		Extractor:   client,
		Logger:      logger,
	})
	pool.Start(ctx)
	defer pool.Stop()

	battles := logic.NewBattleLogService(client, store, seasons, sprites, cfg.CacheTTL, cfg.DefaultPageSize, sugar)

	h := handlers.New(handlers.Config{
		Queue:          pool,
		Hub:            pool.Hub(),
		Checks:         checks,
		Logger:         logger,
		Missing:        cfg.Missing(),
		AllowedOrigins: cfg.AllowedOrigins,
		Dashboard:      logic.NewDashboardService(client, sprites, sugar),
		Seasons:        logic.NewSeasonService(client, store, seasons, cfg.CacheTTL, sugar),
		Battles:        battles,
		Detail:         logic.NewDetailService(client, battles, sprites, sugar),
		Analytics:      logic.NewAnalyticsService(client, store, seasons, sprites, cfg.CacheTTL, sugar),
		Videos:         logic.NewVideoService(client, pool, sugar),
		Labeling:       logic.NewLabelingService(client, objects, table, cfg.SignedURLTTL, sugar),
		Sprites:        sprites,
	})

	auth := handlers.NewAuth(handlers.AuthConfig{
		Domain:    cfg.Auth0Domain,
		ClientID:  cfg.Auth0ClientID,
		DevHeader: cfg.DevTrainerHeader,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h.Router(auth),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	sugar.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
