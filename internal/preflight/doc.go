// Package preflight provides readiness checks for the things a scan cycle
// depends on: required settings, the work and log directories, the
// scanimage binary, the Paperless API, and the configured SANE device.
//
// The "paperscan check" command runs RunAll and renders the results; the
// daemon uses CheckSystemDeps for its startup dependency snapshot.
// Checks never modify state and never upload or scan.
package preflight
