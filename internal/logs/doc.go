// Package logs reads the daemon's log file for the "paperscan logs" command.
//
// Last returns trailing lines with bounded memory; Follow polls for appended
// lines and restarts when a new daemon run repoints paperscan.log.
package logs
