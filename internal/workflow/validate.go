package workflow

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"paperscan/internal/config"
	"paperscan/internal/logging"
	"paperscan/internal/services"
	"paperscan/internal/services/scanimage"
)

// validateConfig logs every missing required setting in one line and runs
// device discovery when no device is configured.
func (r *Runner) validateConfig(ctx context.Context, logger *slog.Logger) bool {
	missing := r.cfg.MissingRequired()
	if len(missing) == 0 {
		return true
	}
	if slices.Contains(missing, config.EnvDevice) {
		_, _ = r.discover(ctx, logger)
	}
	logging.ErrorWithContext(logger, "missing required environment variables: "+strings.Join(missing, ", "), "config_invalid",
		logging.Any("missing", missing),
		logging.String(logging.FieldErrorHint, "set the listed variables or their config.toml equivalents"),
	)
	return false
}

// DiscoverDevices runs scanimage -L and logs what it finds. It waits for any
// scan in progress to finish first.
func (r *Runner) DiscoverDevices(ctx context.Context) ([]scanimage.Device, error) {
	r.device.Lock()
	defer r.device.Unlock()
	return r.discover(ctx, r.logger)
}

func (r *Runner) discover(ctx context.Context, logger *slog.Logger) ([]scanimage.Device, error) {
	devices, raw, err := r.scanner.ListDevices(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "scanner discovery failed", "device_discovery_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "no device suggestion available"),
		)
		return nil, err
	}
	if len(devices) == 0 {
		logging.WarnWithContext(logger, "no scanners found", "device_discovery_empty",
			logging.String("raw_output", raw),
			logging.String(logging.FieldErrorHint, "check USB connection and SANE backend configuration"),
			logging.String(logging.FieldImpact, "scans cannot run until a device is available"),
		)
		return nil, nil
	}
	names := make([]string, 0, len(devices))
	for _, device := range devices {
		names = append(names, device.Name)
	}
	logger.Info("found scanner",
		logging.String(logging.FieldEventType, "device_discovered"),
		logging.Any("devices", names),
		logging.String("raw_output", raw),
	)
	return devices, nil
}
