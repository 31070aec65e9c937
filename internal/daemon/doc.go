// Package daemon coordinates the long-running paperscan process.
//
// It wires the workflow runner, the health endpoint and the Prometheus
// exporter into a single lifecycle with flock-based locking so two daemons
// never drive the same scanner. An optional udev monitor logs USB attach and
// detach events and refreshes device discovery.
//
// Keep orchestration logic here: scanning and uploading live in the workflow
// and services packages while the daemon focuses on startup and shutdown.
package daemon
