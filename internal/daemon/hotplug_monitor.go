package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"paperscan/internal/logging"
	"paperscan/internal/services/scanimage"
)

const discoveryCooldown = 5 * time.Second

var libusbAddress = regexp.MustCompile(`libusb:(\d{3}):(\d{3})`)

// hotplugMonitor listens for USB udev events and re-runs scanner discovery
// when a device is attached. It never starts scans itself. Discovery runs on
// its own goroutine so a slow scanimage -L never stalls the netlink reader.
type hotplugMonitor struct {
	logger   *slog.Logger
	discover func(ctx context.Context) ([]scanimage.Device, error)
	device   string
	now      func() time.Time
	// pending holds at most one queued discovery; further requests coalesce.
	pending chan struct{}

	mu            sync.Mutex
	conn          *netlink.UEventConn
	quit          chan struct{}
	running       bool
	lastDiscovery time.Time
}

func newHotplugMonitor(device string, logger *slog.Logger, discover func(ctx context.Context) ([]scanimage.Device, error)) *hotplugMonitor {
	return &hotplugMonitor{
		logger:   logging.NewComponentLogger(logger, "hotplug-monitor"),
		discover: discover,
		device:   strings.TrimSpace(device),
		now:      time.Now,
		pending:  make(chan struct{}, 1),
	}
}

// Start begins listening for udev netlink events. Failure to open the socket
// is logged and leaves the monitor stopped.
func (m *hotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; hotplug detection disabled", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run with host networking or grant access to netlink sockets"),
			logging.String(logging.FieldImpact, "scanner attach and detach events are not logged"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)
	go m.discoveryLoop(ctx, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("device", m.device),
	)
	return nil
}

// Stop shuts down the monitor.
func (m *hotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *hotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *hotplugMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent, 32)
	errs := make(chan error, 4)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, buildUSBMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "hotplug events may be missed"),
			)
		}
	}
}

// buildUSBMatcher matches whole USB devices being attached or removed:
// SUBSYSTEM=usb, DEVTYPE=usb_device, ACTION=add|remove.
func buildUSBMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_device",
		},
	})
	return rules
}

func (m *hotplugMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	address := usbAddress(uevent)
	configured := m.matchesConfigured(address)
	attrs := []logging.Attr{
		logging.String("action", string(uevent.Action)),
		logging.String("usb_address", address),
		logging.String("product", uevent.Env["PRODUCT"]),
		logging.Bool("configured_device", configured),
	}

	switch uevent.Action {
	case netlink.REMOVE:
		if configured {
			logging.WarnWithContext(m.logger, "configured scanner detached", "scanner_detached",
				append(attrs,
					logging.String(logging.FieldErrorHint, "reconnect the scanner; scans fail until it returns"),
					logging.String(logging.FieldImpact, "scans fail until the device is reattached"),
				)...,
			)
			return
		}
		m.logger.Debug("usb device removed", logging.Args(attrs...)...)
	case netlink.ADD:
		m.logger.Info("usb device attached", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "usb_attached"))...)...)
		m.requestDiscovery()
	}
}

// requestDiscovery queues a discovery unless one ran within the cooldown or
// is already queued. It never blocks.
func (m *hotplugMonitor) requestDiscovery() {
	if m.discover == nil {
		return
	}
	m.mu.Lock()
	now := m.now()
	if !m.lastDiscovery.IsZero() && now.Sub(m.lastDiscovery) < discoveryCooldown {
		m.mu.Unlock()
		return
	}
	m.lastDiscovery = now
	m.mu.Unlock()

	select {
	case m.pending <- struct{}{}:
	default:
	}
}

func (m *hotplugMonitor) discoveryLoop(ctx context.Context, quit <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		case <-m.pending:
			_, _ = m.discover(ctx)
		}
	}
}

// matchesConfigured compares a BUS:DEV address with a libusb style device
// name such as "epson2:libusb:001:004". Vendor names without an address never
// match.
func (m *hotplugMonitor) matchesConfigured(address string) bool {
	if address == "" || m.device == "" {
		return false
	}
	match := libusbAddress.FindStringSubmatch(m.device)
	if match == nil {
		return false
	}
	return address == match[1]+":"+match[2]
}

// usbAddress formats the BUSNUM and DEVNUM of a uevent as "BBB:DDD".
func usbAddress(uevent netlink.UEvent) string {
	bus := strings.TrimSpace(uevent.Env["BUSNUM"])
	dev := strings.TrimSpace(uevent.Env["DEVNUM"])
	if bus == "" || dev == "" {
		return ""
	}
	var b, d int
	if _, err := fmt.Sscanf(bus+" "+dev, "%d %d", &b, &d); err != nil {
		return ""
	}
	return fmt.Sprintf("%03d:%03d", b, d)
}
