package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"paperscan/internal/config"
)

func clearScanEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvAPIURL, config.EnvAPIToken, config.EnvDevice, config.EnvScanMode,
		config.EnvScanFormat, config.EnvScanSource, config.EnvResolution,
		config.EnvBlankPageSkip, config.EnvLogLevel, config.EnvScanInterval,
		config.EnvWorkDir, config.EnvScannerBinary, config.EnvHealthBind,
		config.EnvMetricsBind, config.EnvLogFormat, config.EnvLogDir,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearScanEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Scanner.Mode != "color" {
		t.Fatalf("unexpected mode: %q", cfg.Scanner.Mode)
	}
	if cfg.Scanner.Format != "pdf" {
		t.Fatalf("unexpected format: %q", cfg.Scanner.Format)
	}
	if cfg.Scanner.Source != "Adf-duplex" {
		t.Fatalf("unexpected source: %q", cfg.Scanner.Source)
	}
	if cfg.Scanner.Resolution != "300" {
		t.Fatalf("unexpected resolution: %q", cfg.Scanner.Resolution)
	}
	if cfg.Scanner.BlankPageSkip != "yes" {
		t.Fatalf("unexpected blank page skip: %q", cfg.Scanner.BlankPageSkip)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if cfg.Workflow.ScanInterval != 15 {
		t.Fatalf("unexpected scan interval: %d", cfg.Workflow.ScanInterval)
	}
	if cfg.Server.HealthBind != "0.0.0.0:5000" || cfg.Server.MetricsBind != "0.0.0.0:8000" {
		t.Fatalf("unexpected binds: %q %q", cfg.Server.HealthBind, cfg.Server.MetricsBind)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "paperscan") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if !filepath.IsAbs(cfg.Scanner.WorkDir) {
		t.Fatalf("expected absolute work dir, got %q", cfg.Scanner.WorkDir)
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	clearScanEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvAPIURL, " http://paperless:8000/api/documents/post_document/ ")
	t.Setenv(config.EnvAPIToken, "secret")
	t.Setenv(config.EnvDevice, "fujitsu:ScanSnap iX500:1")
	t.Setenv(config.EnvScanMode, "gray")
	t.Setenv(config.EnvBlankPageSkip, "no")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvScanInterval, "30")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paperless.APIURL != "http://paperless:8000/api/documents/post_document/" {
		t.Fatalf("unexpected api url: %q", cfg.Paperless.APIURL)
	}
	if cfg.Paperless.APIToken != "secret" {
		t.Fatalf("unexpected token: %q", cfg.Paperless.APIToken)
	}
	if cfg.Scanner.Device != "fujitsu:ScanSnap iX500:1" {
		t.Fatalf("unexpected device: %q", cfg.Scanner.Device)
	}
	if cfg.Scanner.Mode != "gray" {
		t.Fatalf("unexpected mode: %q", cfg.Scanner.Mode)
	}
	if cfg.Scanner.BlankPageSkip != "no" {
		t.Fatalf("unexpected blank page skip: %q", cfg.Scanner.BlankPageSkip)
	}
	if !cfg.DebugEnabled() {
		t.Fatal("expected DEBUG to enable debug mode")
	}
	if cfg.Workflow.ScanInterval != 30 {
		t.Fatalf("unexpected interval: %d", cfg.Workflow.ScanInterval)
	}
	if missing := cfg.MissingRequired(); len(missing) != 0 {
		t.Fatalf("expected no missing settings, got %v", missing)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearScanEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "paperscan.toml")

	cfgVal := config.Default()
	cfgVal.Scanner.Device = "file-device"
	cfgVal.Scanner.Resolution = "600"
	cfgVal.Paths.LogDir = filepath.Join(dir, "logs")
	data, err := toml.Marshal(cfgVal)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvDevice, "env-device")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Scanner.Device != "env-device" {
		t.Fatalf("expected env device to win, got %q", cfg.Scanner.Device)
	}
	if cfg.Scanner.Resolution != "600" {
		t.Fatalf("expected file resolution, got %q", cfg.Scanner.Resolution)
	}
}

func TestMissingRequiredReportsEveryName(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		token  string
		device string
		want   []string
	}{
		{name: "all missing", want: []string{config.EnvAPIURL, config.EnvAPIToken, config.EnvDevice}},
		{name: "url only", url: "http://x", want: []string{config.EnvAPIToken, config.EnvDevice}},
		{name: "token only", token: "t", want: []string{config.EnvAPIURL, config.EnvDevice}},
		{name: "device only", device: "d", want: []string{config.EnvAPIURL, config.EnvAPIToken}},
		{name: "url and token", url: "http://x", token: "t", want: []string{config.EnvDevice}},
		{name: "url and device", url: "http://x", device: "d", want: []string{config.EnvAPIToken}},
		{name: "token and device", token: "t", device: "d", want: []string{config.EnvAPIURL}},
		{name: "complete", url: "http://x", token: "t", device: "d", want: nil},
		{name: "whitespace counts as missing", url: " ", token: "\t", device: " ", want: []string{config.EnvAPIURL, config.EnvAPIToken, config.EnvDevice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paperless.APIURL = tt.url
			cfg.Paperless.APIToken = tt.token
			cfg.Scanner.Device = tt.device
			got := cfg.MissingRequired()
			if !slices.Equal(got, tt.want) {
				t.Fatalf("MissingRequired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "interval not numeric", env: map[string]string{config.EnvScanInterval: "soon"}},
		{name: "interval zero", env: map[string]string{config.EnvScanInterval: "0"}},
		{name: "blank page skip", env: map[string]string{config.EnvBlankPageSkip: "maybe"}},
		{name: "log level", env: map[string]string{config.EnvLogLevel: "verbose"}},
		{name: "log format", env: map[string]string{config.EnvLogFormat: "xml"}},
		{name: "api url scheme", env: map[string]string{config.EnvAPIURL: "ftp://paperless"}},
		{name: "same bind", env: map[string]string{config.EnvHealthBind: ":9000", config.EnvMetricsBind: ":9000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearScanEnv(t)
			t.Setenv("HOME", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLogLevelAliases(t *testing.T) {
	for input, want := range map[string]string{
		"WARNING":  "warn",
		"CRITICAL": "error",
		"Info":     "info",
	} {
		clearScanEnv(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv(config.EnvLogLevel, input)
		cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("Load(%s) returned error: %v", input, err)
		}
		if cfg.Logging.Level != want {
			t.Fatalf("level %q normalized to %q, want %q", input, cfg.Logging.Level, want)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearScanEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.ScannerBinary() != "scanimage" {
		t.Fatalf("unexpected binary: %q", cfg.ScannerBinary())
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scanner.WorkDir = filepath.Join(base, "work")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Scanner.WorkDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.LogDir, "paperscan.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}
