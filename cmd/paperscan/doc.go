// Package main hosts the paperscan CLI entrypoint and command graph.
//
// Running paperscan with no subcommand starts the daemon: the scan loop plus
// the health and metrics listeners. One-shot commands cover a single scan
// cycle, SANE device listing, readiness checks, the container healthcheck
// probe, and configuration scaffolding.
//
// Configuration comes from the TOML file, then the environment, with an
// optional dotenv file merged in first. Keep the heavy lifting in internal
// packages; commands here only wire them to flags and output.
package main
