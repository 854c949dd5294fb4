package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voyagery/voyagery-api/internal/blob"
	"github.com/voyagery/voyagery-api/internal/config"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/handlers"
	"github.com/voyagery/voyagery-api/internal/jobs"
	"github.com/voyagery/voyagery-api/internal/logging"
	"github.com/voyagery/voyagery-api/internal/server"
	"github.com/voyagery/voyagery-api/internal/services"
)

func fatal(msg string, err error) {
	logging.CaptureError(msg, err)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)
	flush := logging.InitSentry(cfg.SentryDSN, cfg.Env)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fatal("failed to run migrations", err)
	}

	health := map[string]handlers.HealthChecker{}

	var blobs blob.Store = blob.Disabled{}
	if cfg.Mongo.URI == "" {
		slog.Warn("MONGO_URI not set, document uploads are disabled")
	} else {
		gridfs, err := blob.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			fatal("failed to connect to blob store", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = gridfs.Close(closeCtx)
		}()
		blobs = gridfs
		health["blobs"] = gridfs
	}

	var sessions services.SessionStore
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal("failed to connect to redis", err)
		}
		sessions = services.NewRedisSessionStore(rdb, cfg.SessionTTL)
		health["redis"] = handlers.HealthCheckFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	case config.SessionStorePostgres:
		sessions = services.NewPostgresSessionStore(db, cfg.SessionTTL)
	default:
		fatal("invalid session store", fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore))
	}

	app := server.New(cfg, db, server.Options{
		Sessions: sessions,
		Blobs:    blobs,
		Health:   health,
	})

	go app.Auth.RunStateCleanup(ctx)
	jobs.StartSessionSweeper(ctx, cfg.SweepInterval, sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "session_store", cfg.SessionStore,
			"providers", app.Auth.Providers(), "demo_login", cfg.EnableDemoLogin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
