package jobs

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSessionCleaner removes sessions and tab bindings past their expiry.
type ExpiredSessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

const defaultSweepTimeout = 30 * time.Second

// StartSessionSweeper runs cleaner every interval until ctx is done. A non-positive interval
// disables the job.
func StartSessionSweeper(ctx context.Context, interval time.Duration, cleaner ExpiredSessionCleaner) {
	if interval <= 0 {
		slog.Info("session sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, cleaner, defaultSweepTimeout)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, cleaner ExpiredSessionCleaner, timeout time.Duration) {
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	removed, err := cleaner.CleanupExpired(tickCtx)
	if err != nil {
		slog.Error("session sweeper failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("session sweeper removed expired rows", "count", removed)
	}
}
