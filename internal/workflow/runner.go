package workflow

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"paperscan/internal/config"
	"paperscan/internal/logging"
	"paperscan/internal/metrics"
	"paperscan/internal/services"
	"paperscan/internal/services/paperless"
	"paperscan/internal/services/scanimage"
)

// Runner executes the validate, scan, upload, record cycle.
type Runner struct {
	cfg      *config.Config
	scanner  scanimage.Scanner
	uploader paperless.Uploader
	metrics  metrics.Recorder
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	newID    func() string

	// device serialises scanimage invocations. A SANE device serves one
	// client at a time, so discovery waits for a running scan.
	device sync.Mutex

	iterations atomic.Int64
}

// RunnerOption configures optional Runner behaviour.
type RunnerOption func(*Runner)

// WithClock overrides the time source used for file names and the
// last-success gauge.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithInterval overrides the pause between iterations.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewRunner wires a Runner from explicit collaborators. uploader may be nil
// when Paperless is not configured; such iterations fail validation before
// any upload is attempted.
func NewRunner(cfg *config.Config, scanner scanimage.Scanner, uploader paperless.Uploader, recorder metrics.Recorder, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		scanner:  scanner,
		uploader: uploader,
		metrics:  recorder,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		interval: time.Duration(cfg.Workflow.ScanInterval) * time.Second,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = 15 * time.Second
	}
	return r
}

// NewFromConfig builds the scanimage and Paperless clients described by cfg.
// Subprocess output is inherited when logger emits debug records and is
// discarded otherwise, so command-line level overrides apply to it too.
func NewFromConfig(cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	scanOpts := []scanimage.Option{}
	if inheritOutput(cfg, logger) {
		scanOpts = append(scanOpts, scanimage.WithOutput(os.Stdout, os.Stderr))
	}
	scanner, err := scanimage.New(cfg.ScannerBinary(), scanOpts...)
	if err != nil {
		return nil, err
	}

	var uploader paperless.Uploader
	if strings.TrimSpace(cfg.Paperless.APIURL) != "" && strings.TrimSpace(cfg.Paperless.APIToken) != "" {
		client, err := paperless.New(cfg.Paperless.APIURL, cfg.Paperless.APIToken,
			paperless.WithTimeout(time.Duration(cfg.Paperless.UploadTimeout)*time.Second))
		if err != nil {
			return nil, err
		}
		uploader = client
	}
	return NewRunner(cfg, scanner, uploader, recorder, logger, opts...), nil
}

func inheritOutput(cfg *config.Config, logger *slog.Logger) bool {
	if logger == nil {
		return cfg.DebugEnabled()
	}
	return logger.Enabled(context.Background(), slog.LevelDebug)
}

// Interval returns the pause between iterations.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Iterations returns how many iterations have completed.
func (r *Runner) Iterations() int64 {
	return r.iterations.Load()
}

// RunOnce performs one iteration and reports its outcome. It never returns an
// error; every failure is logged and reflected in the metrics.
func (r *Runner) RunOnce(ctx context.Context) Outcome {
	defer r.iterations.Add(1)
	ctx = logging.WithScanID(ctx, r.newID())
	logger := logging.WithContext(ctx, r.logger)

	result, outcome := r.scan(ctx, logger)
	if outcome != OutcomeScanned {
		return outcome
	}

	logger.Info("scan successful, uploading to paperless",
		logging.String(logging.FieldEventType, "scan_completed"),
		logging.String("file", result.Path),
		logging.Duration("scan_duration", result.Duration.Round(time.Millisecond)),
	)
	r.upload(ctx, logger, result.Path)
	r.metrics.ScanSucceeded(r.now())
	return OutcomeScanned
}

// scan validates the configuration and runs scanimage while holding the
// device lock.
func (r *Runner) scan(ctx context.Context, logger *slog.Logger) (scanimage.Result, Outcome) {
	r.device.Lock()
	defer r.device.Unlock()

	if !r.validateConfig(ctx, logger) {
		r.metrics.ScanFailed()
		return scanimage.Result{}, OutcomeInvalidConfig
	}

	settings := r.settings()
	outputPath := scanimage.OutputPath(r.cfg.Scanner.WorkDir, r.now(), settings.Format)
	logger.Debug("starting scan",
		logging.String(logging.FieldEventType, "scan_started"),
		logging.String("binary", r.cfg.ScannerBinary()),
		logging.Any("args", scanimage.Args(settings, outputPath)),
	)

	// The scan subprocess runs to completion even during shutdown.
	result, err := r.scanner.Scan(context.WithoutCancel(ctx), settings, outputPath)
	if result.ExitCode >= 0 {
		r.metrics.ObserveScan(result.Duration)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "scan failed", "scan_failed",
			logging.Int("exit_code", result.ExitCode),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		r.metrics.ScanFailed()
		return result, OutcomeFailed
	}
	if result.NoDocument() {
		logger.Info("no paper detected, skipping scan",
			logging.String(logging.FieldEventType, "scan_no_document"),
		)
		return result, OutcomeNoDocument
	}
	return result, OutcomeScanned
}

func (r *Runner) settings() scanimage.Settings {
	return scanimage.Settings{
		Device:        r.cfg.Scanner.Device,
		Mode:          r.cfg.Scanner.Mode,
		Format:        r.cfg.Scanner.Format,
		Source:        r.cfg.Scanner.Source,
		Resolution:    r.cfg.Scanner.Resolution,
		BlankPageSkip: r.cfg.Scanner.BlankPageSkip,
	}
}
