// Package scanimage mediates access to the SANE scanimage CLI.
//
// It builds batch-scan invocations from configured settings, maps the exit
// status onto scanned, no-document and failed results, and parses the device
// listing printed by scanimage -L. Command execution sits behind the Executor
// interface so tests never need scanner hardware.
package scanimage
