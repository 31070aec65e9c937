package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"paperscan/internal/services/scanimage"
)

// renderDeviceTable lists discovered scanners and marks the configured one.
func renderDeviceTable(devices []scanimage.Device, configured string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Device", "Description", "Configured"})
	for _, d := range devices {
		tw.AppendRow(table.Row{d.Name, d.Description, yesNo(d.Name == configured)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})
	return tw.Render()
}
