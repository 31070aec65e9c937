package scanimage

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"paperscan/internal/services"
)

// Device is one entry from scanimage -L.
type Device struct {
	Name        string
	Description string
}

// ListDevices runs scanimage -L and returns the parsed devices together with
// the raw listing. A non-zero exit is reported as an error.
func (c *Client) ListDevices(ctx context.Context) ([]Device, string, error) {
	var stdout bytes.Buffer
	code, err := c.exec.Run(ctx, c.binary, []string{"-L"}, &stdout, nil)
	raw := strings.TrimSpace(stdout.String())
	if err != nil {
		return nil, raw, services.Wrap(services.ErrExternalTool, "scanimage", "list devices", "invoke "+c.binary, err)
	}
	if code != 0 {
		return nil, raw, services.Wrap(services.ErrExternalTool, "scanimage", "list devices", "non-zero exit", nil)
	}
	return ParseDevices(raw), raw, nil
}

// ParseDevices extracts devices from lines shaped like
// "device `NAME' is a DESCRIPTION". Other lines are ignored.
func ParseDevices(output string) []Device {
	var devices []Device
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, "device `")
		if !ok {
			continue
		}
		name, desc, ok := strings.Cut(rest, "'")
		if !ok || name == "" {
			continue
		}
		desc = strings.TrimSpace(desc)
		desc = strings.TrimPrefix(desc, "is a ")
		desc = strings.TrimPrefix(desc, "is an ")
		devices = append(devices, Device{Name: name, Description: strings.TrimSpace(desc)})
	}
	return devices
}
