// Package workflow drives the scan loop.
//
// A Runner validates the configuration, invokes scanimage through the
// scanimage client, hands successful scans to Paperless and records the
// outcome in the metrics registry. Run repeats that cycle on a fixed interval
// until its context is cancelled; a scan already in progress always runs to
// completion.
package workflow
