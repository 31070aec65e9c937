package workflow

import (
	"context"
	"time"

	"paperscan/internal/logging"
)

// Run repeats RunOnce until ctx is cancelled, pausing the configured interval
// between iterations. Cancellation interrupts the pause only.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scan loop started",
		logging.String(logging.FieldEventType, "loop_started"),
		logging.Duration("interval", r.interval),
		logging.String("device", r.cfg.Scanner.Device),
	)

	for ctx.Err() == nil {
		outcome := r.RunOnce(ctx)
		r.logger.Debug("scan iteration finished", logging.String("outcome", outcome.String()))
		if !sleep(ctx, r.interval) {
			break
		}
	}

	r.logger.Info("scan loop stopped", logging.String(logging.FieldEventType, "loop_stopped"))
	return nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
