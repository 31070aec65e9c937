package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paperscan/internal/services/scanimage"
)

const listDevicesTimeout = 60 * time.Second

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List SANE devices visible to scanimage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := scanimage.New(cfg.ScannerBinary())
			if err != nil {
				return err
			}
			listCtx, cancel := context.WithTimeout(cmd.Context(), listDevicesTimeout)
			defer cancel()

			devices, output, err := client.ListDevices(listCtx)
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, output)
				return nil
			}
			if len(devices) == 0 {
				fmt.Fprintln(out, "No scanners found")
				return nil
			}
			fmt.Fprintln(out, renderDeviceTable(devices, cfg.Scanner.Device))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print scanimage -L output unparsed")
	return cmd
}
