package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables recognised by Load. The first nine mirror the
// container interface operators already use; the rest cover settings that
// would otherwise require a config file.
const (
	EnvAPIURL        = "PAPERLESS_API_URL"
	EnvAPIToken      = "PAPERLESS_API_TOKEN"
	EnvDevice        = "DEVICE"
	EnvScanMode      = "SCAN_MODE"
	EnvScanFormat    = "SCAN_FORMAT"
	EnvScanSource    = "SCAN_SOURCE"
	EnvResolution    = "SCAN_RESOLUTION"
	EnvBlankPageSkip = "SCAN_BLANK_PAGE_SKIP"
	EnvLogLevel      = "LOGLEVEL"

	EnvScanInterval  = "SCAN_INTERVAL"
	EnvWorkDir       = "SCAN_WORK_DIR"
	EnvScannerBinary = "SCANIMAGE_BINARY"
	EnvHealthBind    = "HEALTH_BIND"
	EnvMetricsBind   = "METRICS_BIND"
	EnvLogFormat     = "LOG_FORMAT"
	EnvLogDir        = "LOG_DIR"
)

func (c *Config) applyEnv() {
	overrides := []struct {
		name   string
		target *string
	}{
		{EnvAPIURL, &c.Paperless.APIURL},
		{EnvAPIToken, &c.Paperless.APIToken},
		{EnvDevice, &c.Scanner.Device},
		{EnvScanMode, &c.Scanner.Mode},
		{EnvScanFormat, &c.Scanner.Format},
		{EnvScanSource, &c.Scanner.Source},
		{EnvResolution, &c.Scanner.Resolution},
		{EnvBlankPageSkip, &c.Scanner.BlankPageSkip},
		{EnvLogLevel, &c.Logging.Level},
		{EnvWorkDir, &c.Scanner.WorkDir},
		{EnvScannerBinary, &c.Scanner.Binary},
		{EnvHealthBind, &c.Server.HealthBind},
		{EnvMetricsBind, &c.Server.MetricsBind},
		{EnvLogFormat, &c.Logging.Format},
		{EnvLogDir, &c.Paths.LogDir},
	}
	for _, o := range overrides {
		if value, ok := lookupEnv(o.name); ok {
			*o.target = value
		}
	}

	if value, ok := lookupEnv(EnvScanInterval); ok {
		if seconds, err := strconv.Atoi(value); err == nil {
			c.Workflow.ScanInterval = seconds
		} else {
			// Validate rejects non-positive intervals with the variable name.
			c.Workflow.ScanInterval = -1
		}
	}
}

// lookupEnv treats blank values as unset so an empty variable in a compose
// file does not wipe out a default.
func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}
