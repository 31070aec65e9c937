package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"paperscan/internal/config"
	"paperscan/internal/logging"
	"paperscan/internal/metrics"
	"paperscan/internal/workflow"
)

// Daemon runs the scan loop next to the health and metrics servers and
// enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runner  *workflow.Runner
	health  *httpServer
	metrics *httpServer
	hotplug *hotplugMonitor

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	HealthAddr   string
	MetricsAddr  string
	Iterations   int64
	Hotplug      bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, runner *workflow.Runner, reg *metrics.Registry, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil || reg == nil || logger == nil {
		return nil, errors.New("daemon requires config, runner, metrics registry, and logger")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runner:   runner,
		health:   newHealthServer(cfg.Server.HealthBind, logger),
		metrics:  newMetricsServer(cfg.Server.MetricsBind, reg, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Scanner.WatchHotplug {
		d.hotplug = newHotplugMonitor(cfg.Scanner.Device, logger, runner.DiscoverDevices)
	}
	return d, nil
}

// Start acquires the daemon lock, opens both listeners and launches the scan
// loop. Listener failures release the lock and are returned.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another paperscan daemon instance is already running (lock %s)", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, srv := range []*httpServer{d.health, d.metrics} {
		if err := srv.start(runCtx); err != nil {
			cancel()
			_ = d.lock.Unlock()
			return err
		}
	}
	if err := d.hotplug.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start hotplug monitor: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.runner.Run(runCtx)
	}()

	d.cancel = cancel
	d.done = done
	d.running.Store(true)
	d.logger.Info("paperscan daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("health_address", d.health.addr()),
		logging.String("metrics_address", d.metrics.addr()),
	)
	return nil
}

// Stop cancels the loop, waits for any in-flight scan to finish, closes the
// listeners and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	d.hotplug.Stop()
	d.health.stop()
	d.metrics.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if the next start fails"),
			logging.String(logging.FieldImpact, "stale lock file may remain"),
		)
	}
	d.running.Store(false)
	d.logger.Info("paperscan daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Done is closed when the scan loop exits. It is nil before Start.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		HealthAddr:   d.health.addr(),
		MetricsAddr:  d.metrics.addr(),
		Iterations:   d.runner.Iterations(),
		Hotplug:      d.hotplug.Running(),
	}
}
