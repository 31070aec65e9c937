// Package logging assembles structured slog loggers and formatting helpers used
// across paperscan.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so each scan iteration tags its log
// lines with a scan ID. Daemon processes additionally stamp every line with a
// run ID. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
