// Package config loads, normalizes, and validates paperscan configuration.
//
// Settings are layered: repository defaults, an optional TOML file, then the
// process environment (PAPERLESS_API_URL, DEVICE, SCAN_MODE and friends).
// Loading never fails because a required credential is absent; callers ask
// MissingRequired on every scan so a misconfigured daemon keeps serving
// health and metrics while it reports the problem.
//
// Always obtain settings through this package so downstream code receives
// expanded paths and canonical log levels.
package config
