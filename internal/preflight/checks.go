package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"paperscan/internal/config"
	"paperscan/internal/deps"
	"paperscan/internal/services/paperless"
)

const paperlessTimeout = 5 * time.Second

// CheckPaperless verifies the Paperless API answers and accepts the token.
func CheckPaperless(ctx context.Context, apiURL, token string) Result {
	const name = "Paperless"

	if strings.TrimSpace(apiURL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "missing api token"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, paperlessTimeout)
	defer cancel()

	client, err := paperless.New(apiURL, token, paperless.WithTimeout(paperlessTimeout))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizePaperlessError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRequiredSettings reports the settings a scan cycle refuses to run without.
func CheckRequiredSettings(cfg *config.Config) Result {
	const name = "Required settings"
	missing := cfg.MissingRequired()
	if len(missing) == 0 {
		return Result{Name: name, Passed: true, Detail: "API URL, token and device set"}
	}
	return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
}

// CheckSystemDeps evaluates the external binaries used by the scan loop.
// The daemon logs this snapshot at startup and the check command renders it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "scanimage",
			Command:     cfg.ScannerBinary(),
			Description: "Required for scanning and device discovery",
		},
		{
			Name:        "sane-find-scanner",
			Command:     "sane-find-scanner",
			Description: "Helps diagnose scanners that scanimage -L does not list",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

func summarizePaperlessError(err error) string {
	var statusErr *paperless.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api token)"
		default:
			return fmt.Sprintf("api check failed (%d)", statusErr.StatusCode)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "api check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "api check timed out"
	}
	return fmt.Sprintf("api check failed (%v)", err)
}
