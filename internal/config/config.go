package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paperless contains the document-management upload settings.
type Paperless struct {
	APIURL        string `toml:"api_url"`
	APIToken      string `toml:"api_token"`
	UploadTimeout int    `toml:"upload_timeout"`
}

// Scanner contains the scanimage invocation settings.
type Scanner struct {
	Binary        string `toml:"binary"`
	Device        string `toml:"device"`
	Mode          string `toml:"mode"`
	Format        string `toml:"format"`
	Source        string `toml:"source"`
	Resolution    string `toml:"resolution"`
	BlankPageSkip string `toml:"blank_page_skip"`
	WorkDir       string `toml:"work_dir"`
	WatchHotplug  bool   `toml:"watch_hotplug"`
}

// Workflow contains scheduler timing.
type Workflow struct {
	ScanInterval int `toml:"scan_interval"`
}

// Server contains listener addresses for the health and metrics endpoints.
type Server struct {
	HealthBind  string `toml:"health_bind"`
	MetricsBind string `toml:"metrics_bind"`
}

// Paths contains directories owned by the daemon.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	File          bool   `toml:"file"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for paperscan.
//
// Configuration sections by subsystem:
//   - Paperless: upload endpoint and token
//   - Scanner: scanimage device and scan parameters
//   - Workflow: scheduler interval
//   - Server: health and metrics listeners
//   - Paths: lock/pid/log directory
//   - Logging: log format, level, and optional file output
type Config struct {
	Paperless Paperless `toml:"paperless"`
	Scanner   Scanner   `toml:"scanner"`
	Workflow  Workflow  `toml:"workflow"`
	Server    Server    `toml:"server"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file, then applies
// environment overrides. A missing file is not an error; defaults and the
// environment are used instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("paperscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Scanner.WorkDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MissingRequired reports every required setting that is absent, using the
// environment variable names operators configure them with.
func (c *Config) MissingRequired() []string {
	var missing []string
	if strings.TrimSpace(c.Paperless.APIURL) == "" {
		missing = append(missing, EnvAPIURL)
	}
	if strings.TrimSpace(c.Paperless.APIToken) == "" {
		missing = append(missing, EnvAPIToken)
	}
	if strings.TrimSpace(c.Scanner.Device) == "" {
		missing = append(missing, EnvDevice)
	}
	return missing
}

// DeviceConfigured reports whether a scanner device has been selected.
func (c *Config) DeviceConfigured() bool {
	return strings.TrimSpace(c.Scanner.Device) != ""
}

// DebugEnabled reports whether the configured log level is debug.
func (c *Config) DebugEnabled() bool {
	return c.Logging.Level == "debug"
}

// ScannerBinary returns the scanimage executable name.
func (c *Config) ScannerBinary() string {
	if strings.TrimSpace(c.Scanner.Binary) == "" {
		return defaultScannerBinary
	}
	return c.Scanner.Binary
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "paperscan.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
