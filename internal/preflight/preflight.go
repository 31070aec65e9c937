package preflight

import (
	"context"
	"fmt"

	"paperscan/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config. The scanner
// probe is skipped when the scanimage binary cannot be resolved.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckRequiredSettings(cfg)}
	results = append(results,
		CheckDirectoryAccess("Work directory", cfg.Scanner.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	)

	scannerAvailable := false
	for _, status := range CheckSystemDeps(cfg) {
		if status.Optional && !status.Available {
			continue
		}
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		} else if status.Name == "scanimage" {
			scannerAvailable = true
		}
		results = append(results, Result{Name: fmt.Sprintf("Binary %s", status.Name), Passed: status.Available, Detail: detail})
	}

	results = append(results, CheckPaperlessFromConfig(ctx, cfg))
	if scannerAvailable {
		results = append(results, CheckScannerFromConfig(ctx, cfg))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
