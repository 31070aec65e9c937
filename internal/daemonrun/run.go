package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"paperscan/internal/config"
	"paperscan/internal/daemon"
	"paperscan/internal/deps"
	"paperscan/internal/logging"
	"paperscan/internal/metrics"
	"paperscan/internal/preflight"
	"paperscan/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the paperscan daemon and blocks until SIGINT, SIGTERM, or
// cancellation of cmdCtx.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := uuid.NewString()
	stamp := time.Now().UTC().Format("20060102T150405.000Z")
	outputs := []string{"stdout"}
	var logPath string
	if cfg.Logging.File {
		logPath = filepath.Join(cfg.Paths.LogDir, strings.Replace(logging.RunLogPattern, "*", stamp, 1))
		outputs = append(outputs, logPath)
	}

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
		RunID:       runID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if logPath != "" {
		if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to update paperscan.log link: %v\n", err)
		}
		logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "paperscan.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	registry := metrics.New()
	runner, err := workflow.NewFromConfig(cfg, registry, logger)
	if err != nil {
		return fmt.Errorf("create scan runner: %w", err)
	}

	d, err := daemon.New(cfg, runner, registry, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the health and metrics ports are free and no other instance holds the lock"),
			logging.String(logging.FieldImpact, "no scans will run"),
		)
		return err
	}

	select {
	case <-signalCtx.Done():
	case <-d.Done():
	}
	logger.Info("paperscan daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"),
	)
	d.Stop()
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "paperscan.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := preflight.CheckSystemDeps(cfg)
	attrs := []any{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("api_url_present", strings.TrimSpace(cfg.Paperless.APIURL) != ""),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Paperless.APIToken) != ""),
		logging.Bool("device_present", strings.TrimSpace(cfg.Scanner.Device) != ""),
		logging.String("scan_interval", fmt.Sprintf("%ds", cfg.Workflow.ScanInterval)),
	}
	for _, status := range statuses {
		key := strings.ReplaceAll(status.Name, "-", "_")
		attrs = append(attrs, logging.Bool(key+"_available", status.Available))
	}
	if missing := deps.Missing(statuses); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Command)
		}
		logging.WarnWithContext(logger, "required binaries missing", "dependency_missing",
			logging.String("missing", strings.Join(names, ", ")),
			logging.String(logging.FieldErrorHint, "install sane-utils or set scanner.binary"),
			logging.String(logging.FieldImpact, "every scan cycle will fail"),
		)
	}
	logger.Info("dependency snapshot", attrs...)
}
