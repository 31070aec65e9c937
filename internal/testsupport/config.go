package testsupport

import (
	"path/filepath"
	"testing"

	"paperscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a complete config seeded with unique temp directories
// per test. Listeners bind to ephemeral loopback ports.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paperless.APIURL = "http://127.0.0.1:1/api/documents/post_document/"
	cfgVal.Paperless.APIToken = "test-token"
	cfgVal.Scanner.Device = "test:scanner"
	cfgVal.Scanner.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.HealthBind = "127.0.0.1:0"
	cfgVal.Server.MetricsBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPaperless points the upload settings at the given URL and token.
func WithPaperless(apiURL, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paperless.APIURL = apiURL
		b.cfg.Paperless.APIToken = token
	}
}

// WithDevice overrides the SANE device name on the test config.
func WithDevice(device string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scanner.Device = device
	}
}

// WithDirectories creates the work and log directories up front.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// WithScannerScript writes an executable shell script as the scanner binary
// and points Scanner.Binary at it. The body runs under /bin/sh.
func WithScannerScript(body string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scanner.Binary = WriteScript(b.t, filepath.Join(b.baseDir, "bin"), "scanimage", body)
	}
}
