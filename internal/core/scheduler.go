package core

// scheduler.go runs background maintenance for the job store.
//
// Finished job records are kept for a retention window so clients can poll
// their result, then deleted by a periodic sweep. The sweeper logs failures
// and keeps running; a missed sweep is retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the retention sweeper.
type RetentionConfig struct {
	Retention     time.Duration // How long terminal jobs stay pollable (default: 24h)
	SweepInterval time.Duration // How often to sweep (default: 10m)
}

const (
	DefaultRetention     = 24 * time.Hour
	DefaultSweepInterval = 10 * time.Minute
)

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}

// StartRetentionSweeper deletes terminal jobs older than cfg.Retention.
// It sweeps immediately, then every cfg.SweepInterval, until ctx is cancelled.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention sweeper started",
		"retention", cfg.Retention,
		"interval", cfg.SweepInterval,
	)

	s.sweepExpired(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.sweepExpired(ctx, cfg.Retention)
		}
	}
}

// sweepExpired performs one sweep and returns the number of jobs deleted.
func (s *Service) sweepExpired(ctx context.Context, retention time.Duration) int {
	start := time.Now()
	cutoff := s.now().Add(-retention)

	deleted, err := s.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention sweep failed", "error", err)
		return 0
	}

	if deleted > 0 {
		slog.Info("expired jobs deleted",
			"jobs_deleted", deleted,
			"cutoff", cutoff,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		slog.Debug("retention sweep found nothing to delete")
	}
	return deleted
}
