package dataset

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Reloader periodically refreshes a Store from its source.
type Reloader struct {
	store    *Store
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewReloader creates a Reloader. A nil clock uses real time.
func NewReloader(store *Store, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Reloader {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reloader{store: store, interval: interval, clock: clock, logger: logger}
}

// Run refreshes the store on every tick until the context is cancelled.
// Failed refreshes keep the previous dataset and back off before the next tick.
func (r *Reloader) Run(ctx context.Context) error {
	r.logger.Info("dataset reloader started", "interval", r.interval)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dataset reloader stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}

		changed, err := r.store.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("dataset reload failed, keeping previous version", "error", err, "backoff", backoff)
			if !sleepWithContext(ctx, r.clock, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff
		if !changed {
			r.logger.Debug("dataset unchanged")
		}
	}
}

// sleepWithContext mirrors retry.SleepWithContext on an injectable clock.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
