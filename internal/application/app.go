// Package application wires configuration, storage, the inference service
// and the HTTP server into a running process.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/JonMunkholm/datamorpher/internal/config"
	"github.com/JonMunkholm/datamorpher/internal/core"
	"github.com/JonMunkholm/datamorpher/internal/inference"
	"github.com/JonMunkholm/datamorpher/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EngineOptions builds inference options from configuration.
func EngineOptions(cfg *config.Config) inference.Options {
	opts := inference.DefaultOptions()
	opts.Parallelism = cfg.Worker.ClassifyParallelism
	return opts
}

// ServiceOptions builds job service options from configuration.
func ServiceOptions(cfg *config.Config) core.Options {
	return core.Options{
		Workers:    cfg.Worker.Concurrency,
		QueueSize:  cfg.Worker.QueueSize,
		JobTimeout: cfg.Worker.JobTimeout,
	}
}

// OpenStore returns the job store selected by cfg: Postgres when a database
// URL is set, memory otherwise. The returned func releases the store.
func OpenStore(ctx context.Context, cfg *config.Config) (core.Store, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, keeping jobs in memory")
		return core.NewMemoryStore(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := core.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate job store: %w", err)
	}
	return store, pool.Close, nil
}

// Run serves the inference API until ctx is cancelled, then drains uploads
// and jobs within cfg.Server.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"database", cfg.Database.URL != "",
		"workers", cfg.Worker.Concurrency,
		"queue_size", cfg.Worker.QueueSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	svc := core.NewService(store, inference.NewEngine(EngineOptions(cfg)), ServiceOptions(cfg))
	svc.Start()

	server, err := web.NewServer(cfg, svc)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go svc.StartRetentionSweeper(sweepCtx, core.RetentionConfig{
		Retention:     cfg.Retention.JobRetention,
		SweepInterval: cfg.Retention.SweepInterval,
	})

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server did not shut down cleanly", "error", err)
	}

	stats := svc.Stats()
	if stats.InFlight+stats.Queued > 0 {
		slog.Info("waiting for jobs to finish", "in_flight", stats.InFlight, "queued", stats.Queued)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		slog.Warn("jobs did not finish in time", "error", err)
	} else {
		slog.Info("all jobs finished")
	}

	return runErr
}
