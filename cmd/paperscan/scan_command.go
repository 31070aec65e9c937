package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperscan/internal/metrics"
	"paperscan/internal/workflow"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single scan cycle and exit",
		Long:  "Runs one scan cycle: validate configuration, scan, and upload on success.\nExits non-zero when the cycle fails; an empty feeder is not a failure.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(cfg)
			if err != nil {
				return err
			}
			runner, err := workflow.NewFromConfig(cfg, metrics.New(), logger)
			if err != nil {
				return fmt.Errorf("create scan runner: %w", err)
			}
			outcome := runner.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Scan outcome: %s\n", outcome)
			if outcome.Failed() {
				return fmt.Errorf("scan cycle failed: %s", outcome)
			}
			return nil
		},
	}
}
