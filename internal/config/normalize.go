package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePaperless()
	c.normalizeScanner()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Scanner.WorkDir) == "" {
		c.Scanner.WorkDir = defaultWorkDir
	}
	if c.Scanner.WorkDir, err = expandPath(c.Scanner.WorkDir); err != nil {
		return fmt.Errorf("scanner.work_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePaperless() {
	c.Paperless.APIURL = strings.TrimSpace(c.Paperless.APIURL)
	c.Paperless.APIToken = strings.TrimSpace(c.Paperless.APIToken)
	if c.Paperless.UploadTimeout < 0 {
		c.Paperless.UploadTimeout = 0
	}
}

func (c *Config) normalizeScanner() {
	c.Scanner.Binary = strings.TrimSpace(c.Scanner.Binary)
	if c.Scanner.Binary == "" {
		c.Scanner.Binary = defaultScannerBinary
	}
	c.Scanner.Device = strings.TrimSpace(c.Scanner.Device)
	c.Scanner.Mode = fallback(c.Scanner.Mode, defaultScanMode)
	c.Scanner.Format = strings.ToLower(fallback(c.Scanner.Format, defaultScanFormat))
	c.Scanner.Source = fallback(c.Scanner.Source, defaultScanSource)
	c.Scanner.Resolution = fallback(c.Scanner.Resolution, defaultScanResolution)

	switch strings.ToLower(strings.TrimSpace(c.Scanner.BlankPageSkip)) {
	case "", "yes", "y", "true", "1", "on":
		c.Scanner.BlankPageSkip = "yes"
	case "no", "n", "false", "0", "off":
		c.Scanner.BlankPageSkip = "no"
	default:
		c.Scanner.BlankPageSkip = strings.TrimSpace(c.Scanner.BlankPageSkip)
	}
}

func (c *Config) normalizeServer() {
	c.Server.HealthBind = fallback(c.Server.HealthBind, defaultHealthBind)
	c.Server.MetricsBind = fallback(c.Server.MetricsBind, defaultMetricsBind)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	case "critical", "fatal":
		c.Logging.Level = "error"
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func fallback(value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	return value
}
