package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paperscan/internal/config"
	"paperscan/internal/services/scanimage"
)

const listTimeout = 30 * time.Second

// ScannerProbe reports whether the configured device showed up in scanimage -L.
type ScannerProbe struct {
	Listed      bool
	Device      string
	Description string
	Devices     []scanimage.Device
	Err         error
}

// ProbeScanner lists SANE devices and looks for the configured one.
func ProbeScanner(ctx context.Context, scanner scanimage.Scanner, device string) ScannerProbe {
	probe := ScannerProbe{Device: strings.TrimSpace(device)}
	if scanner == nil {
		probe.Err = fmt.Errorf("scanner client unavailable")
		return probe
	}
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	devices, _, err := scanner.ListDevices(listCtx)
	if err != nil {
		probe.Err = err
		return probe
	}
	probe.Devices = devices
	for _, d := range devices {
		if d.Name == probe.Device {
			probe.Listed = true
			probe.Description = d.Description
			break
		}
	}
	return probe
}

// DeviceDetail renders a display-friendly summary for the check table.
func (p ScannerProbe) DeviceDetail() string {
	switch {
	case p.Err != nil:
		return fmt.Sprintf("listing failed (%v)", p.Err)
	case p.Device == "":
		return fmt.Sprintf("no device configured (%d visible)", len(p.Devices))
	case p.Listed && p.Description != "":
		return fmt.Sprintf("%s (%s)", p.Device, p.Description)
	case p.Listed:
		return p.Device
	default:
		return fmt.Sprintf("%s not listed (%d visible)", p.Device, len(p.Devices))
	}
}

// CheckScannerFromConfig probes the configured device using the scanimage binary from cfg.
func CheckScannerFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Scanner"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	client, err := scanimage.New(cfg.ScannerBinary())
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	probe := ProbeScanner(ctx, client, cfg.Scanner.Device)
	return Result{Name: name, Passed: probe.Listed, Detail: probe.DeviceDetail()}
}

// CheckPaperlessFromConfig evaluates Paperless reachability from config.
func CheckPaperlessFromConfig(ctx context.Context, cfg *config.Config) Result {
	if cfg == nil {
		return Result{Name: "Paperless", Detail: "Unknown"}
	}
	return CheckPaperless(ctx, cfg.Paperless.APIURL, cfg.Paperless.APIToken)
}
