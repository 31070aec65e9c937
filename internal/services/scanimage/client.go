package scanimage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"paperscan/internal/services"
)

// ExitNoDocuments is the scanimage exit status for an empty feeder.
const ExitNoDocuments = 7

// Settings describes one batch scan invocation.
type Settings struct {
	Device        string
	Mode          string
	Format        string
	Source        string
	Resolution    string
	BlankPageSkip string
}

// Result captures the outcome of a single scanimage run.
type Result struct {
	ExitCode int
	Path     string
	Duration time.Duration
}

// Scanned reports whether scanimage produced a document.
func (r Result) Scanned() bool { return r.ExitCode == 0 }

// NoDocument reports whether the feeder was empty.
func (r Result) NoDocument() bool { return r.ExitCode == ExitNoDocuments }

// Scanner defines the behaviour the workflow runner needs.
type Scanner interface {
	Scan(ctx context.Context, settings Settings, outputPath string) (Result, error)
	ListDevices(ctx context.Context) ([]Device, string, error)
}

// Executor abstracts command execution for testability. It returns the exit
// status of a process that ran to completion; err is reserved for failures to
// start or wait on the process.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) (int, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithOutput routes the scan subprocess output. Nil writers discard.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Client) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// Client wraps scanimage CLI interactions.
type Client struct {
	binary string
	exec   Executor
	stdout io.Writer
	stderr io.Writer
}

// New constructs a scanimage client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("scanimage binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Args builds the scanimage argument list for a batch scan into outputPath.
func Args(settings Settings, outputPath string) []string {
	return []string{
		"--device=" + settings.Device,
		"--mode", settings.Mode,
		"--format=" + settings.Format,
		"--source=" + settings.Source,
		"--resolution=" + settings.Resolution,
		"--batch=" + outputPath,
		"--blank-page-skip=" + settings.BlankPageSkip,
	}
}

// OutputName returns the batch file name for a scan started at ts.
func OutputName(ts time.Time, format string) string {
	ext := strings.ToLower(strings.TrimSpace(format))
	if ext == "" {
		ext = "pdf"
	}
	return ts.Format("20060102_150405") + "." + ext
}

// OutputPath joins OutputName onto dir.
func OutputPath(dir string, ts time.Time, format string) string {
	return filepath.Join(dir, OutputName(ts, format))
}

// Scan runs one batch scan. A zero or ExitNoDocuments status returns a nil
// error; every other status and any invocation failure is wrapped with
// services.ErrExternalTool.
func (c *Client) Scan(ctx context.Context, settings Settings, outputPath string) (Result, error) {
	if strings.TrimSpace(outputPath) == "" {
		return Result{ExitCode: -1}, services.Wrap(services.ErrConfiguration, "scanimage", "scan", "output path required", nil)
	}
	start := time.Now()
	code, err := c.exec.Run(ctx, c.binary, Args(settings, outputPath), c.stdout, c.stderr)
	result := Result{ExitCode: code, Duration: time.Since(start)}
	if err != nil {
		result.ExitCode = -1
		return result, services.Wrap(services.ErrExternalTool, "scanimage", "scan", "invoke "+c.binary, err)
	}
	switch code {
	case 0:
		result.Path = outputPath
		return result, nil
	case ExitNoDocuments:
		return result, nil
	default:
		return result, services.Wrap(services.ErrExternalTool, "scanimage", "scan", fmt.Sprintf("exit status %d", code), nil)
	}
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run command: %w", err)
}
