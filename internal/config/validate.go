package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the structural settings are usable. Absent credentials and
// device are reported by MissingRequired instead so the daemon can still start.
func (c *Config) Validate() error {
	if err := c.validatePaperless(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaperless() error {
	if c.Paperless.APIURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Paperless.APIURL)
	if err != nil {
		return fmt.Errorf("paperless.api_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("paperless.api_url must use http or https, got %q", c.Paperless.APIURL)
	}
	return nil
}

func (c *Config) validateScanner() error {
	switch c.Scanner.BlankPageSkip {
	case "yes", "no":
	default:
		return fmt.Errorf("scanner.blank_page_skip must be yes or no, got %q", c.Scanner.BlankPageSkip)
	}
	if strings.ContainsAny(c.Scanner.Format, "/\\") {
		return fmt.Errorf("scanner.format contains a path separator: %q", c.Scanner.Format)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ScanInterval <= 0 {
		return fmt.Errorf("workflow.scan_interval (%s) must be a positive number of seconds", EnvScanInterval)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.HealthBind == c.Server.MetricsBind {
		return errors.New("server.health_bind and server.metrics_bind must differ")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level (%s) must be one of DEBUG, INFO, WARNING, ERROR, got %q", EnvLogLevel, c.Logging.Level)
	}
	return nil
}
