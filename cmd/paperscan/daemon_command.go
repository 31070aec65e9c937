package main

import (
	"github.com/spf13/cobra"

	"paperscan/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the scan loop with the health and metrics servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd, ctx)
		},
	}
}

func runDaemon(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
		LogLevel:    ctx.resolvedLogLevel(cfg),
		Development: ctx.logDevelopment(cfg),
	})
}
