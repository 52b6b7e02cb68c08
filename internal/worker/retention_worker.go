package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/service"
)

// RetentionWorker periodically removes stale tickets from the store. A
// zero interval disables the worker; cleanup then happens only through
// the admin endpoint.
type RetentionWorker struct {
	sync     *service.SyncService
	days     int
	interval time.Duration
	log      *zap.Logger
}

// NewRetentionWorker constructs the worker.
func NewRetentionWorker(syncService *service.SyncService, days int, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionWorker{sync: syncService, days: days, interval: interval, log: logger}
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	if w.interval <= 0 || w.days <= 0 {
		w.log.Info("retention worker disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("retention worker started",
			zap.Int("days", w.days),
			zap.Duration("interval", w.interval))

		for {
			select {
			case <-ctx.Done():
				w.log.Info("retention worker stopped")
				return
			case <-ticker.C:
				if _, err := w.sync.Cleanup(ctx, w.days); err != nil {
					w.log.Warn("retention sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
