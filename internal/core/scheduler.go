package core

// scheduler.go runs background maintenance for the file store.
//
// The sweeper removes uploads whose TTL has passed. Expired files are
// already invisible to requests; sweeping only releases their memory. It
// is long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSweeper gets a non-positive interval.
const DefaultSweepInterval = time.Minute

// StartSweeper periodically drops expired files until ctx is cancelled.
// Run it in its own goroutine.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("file sweeper started", "interval", interval, "ttl", s.cfg.FileTTL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("file sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes expired files now and returns how many were dropped.
func (s *Service) Sweep() int {
	start := time.Now()
	removed := s.store.sweep()
	if removed > 0 {
		slog.Info("expired files removed",
			"files_removed", removed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return removed
}
