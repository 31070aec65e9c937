package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const healthcheckTimeout = 5 * time.Second

func newHealthcheckCommand(ctx *commandContext) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running daemon's /health endpoint",
		Long:  "Probes GET /health on the configured health listener and exits non-zero unless it answers 200 OK.\nSuitable as a container HEALTHCHECK command.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := strings.TrimSpace(address)
			if target == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				target = cfg.Server.HealthBind
			}
			url := healthURL(target)
			reqCtx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
			defer cancel()

			req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("health probe %s: %w", url, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health probe %s: status %d", url, resp.StatusCode)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.TrimSpace(string(body)))
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "host:port of the health listener (default: server.health_bind)")
	return cmd
}

// healthURL maps a listen address onto a dialable URL; wildcard hosts become loopback.
func healthURL(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind + "/health"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health"
}
