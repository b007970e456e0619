package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"displayctl/internal/edid"
)

// Default sysfs roots.
const (
	DRMRoot       = "/sys/class/drm"
	BacklightRoot = "/sys/class/backlight"
)

// Connector is a connected DRM connector.
type Connector struct {
	Entry   string // sysfs entry, e.g. "card1-HDMI-A-1"
	Name    string // connector without the card prefix, e.g. "HDMI-A-1"
	EDID    []byte
	BuiltIn bool
	Buses   []BusCandidate
}

// ScanDRM lists connected connectors below root in lexical order.
func ScanDRM(root string) ([]Connector, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var connectors []Connector
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "card") || !strings.Contains(name, "-") {
			continue
		}
		if strings.Contains(name, "Writeback") || strings.Contains(name, "Virtual") {
			continue
		}

		dir := filepath.Join(root, name)
		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		c := Connector{
			Entry: name,
			Name:  name[strings.Index(name, "-")+1:],
		}
		c.BuiltIn = IsBuiltinConnector(c.Name)
		c.EDID, _ = os.ReadFile(filepath.Join(dir, "edid"))
		c.Buses = connectorBuses(dir)

		connectors = append(connectors, c)
	}

	sort.Slice(connectors, func(i, j int) bool { return connectors[i].Entry < connectors[j].Entry })
	return connectors, nil
}

// connectorBuses collects the i2c-N child adapter (DP AUX, native) and the
// target of the ddc link. Either may be the one wired to the monitor.
func connectorBuses(dir string) []BusCandidate {
	var buses []BusCandidate

	if children, err := os.ReadDir(dir); err == nil {
		for _, child := range children {
			if n, ok := parseBus(child.Name()); ok {
				buses = addBus(buses, n, Primary)
			}
		}
	}

	if target, err := os.Readlink(filepath.Join(dir, "ddc")); err == nil {
		if n, ok := parseBus(filepath.Base(target)); ok {
			origin := Secondary
			if len(buses) == 0 {
				origin = Primary
			}
			buses = addBus(buses, n, origin)
		}
	}

	return buses
}

func parseBus(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "i2c-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

var preferredBacklights = []string{"intel_backlight", "amdgpu_bl0", "amdgpu_bl1", "acpi_video0"}

// FindBacklight picks the backlight device to drive below root.
func FindBacklight(root string) (string, bool) {
	for _, name := range preferredBacklights {
		if _, err := os.Stat(filepath.Join(root, name, "brightness")); err == nil {
			return name, true
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "brightness")); err == nil {
			return entry.Name(), true
		}
	}
	return "", false
}

// SysfsDiscoverer discovers outputs from the DRM and backlight class trees.
type SysfsDiscoverer struct {
	DRMRoot       string
	BacklightRoot string
	Logger        *zap.SugaredLogger
}

// NewSysfsDiscoverer uses the default sysfs roots.
func NewSysfsDiscoverer(logger *zap.SugaredLogger) *SysfsDiscoverer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SysfsDiscoverer{DRMRoot: DRMRoot, BacklightRoot: BacklightRoot, Logger: logger}
}

// Discover lists the backlight panel first, then every external connector.
// Built-in connectors are folded into the backlight entry when one exists.
func (d *SysfsDiscoverer) Discover() ([]Output, error) {
	connectors, err := ScanDRM(d.DRMRoot)
	if err != nil {
		d.Logger.Debugw("no drm connectors", "err", err)
	}

	var outs []Output
	backlight, hasBacklight := FindBacklight(d.BacklightRoot)
	if hasBacklight {
		panel := Output{
			ID:        "backlight",
			Name:      fmt.Sprintf("Built-in Display (%s)", backlight),
			BuiltIn:   true,
			Backlight: backlight,
			Connector: "eDP-1",
		}
		for _, c := range connectors {
			if c.BuiltIn {
				panel.Connector = OutputName(c.Name)
				break
			}
		}
		outs = append(outs, panel)
	}

	for _, c := range connectors {
		if hasBacklight && c.BuiltIn {
			continue
		}
		name := edid.DisplayName(c.EDID)
		if name == "" {
			name = OutputName(c.Name)
		}
		outs = append(outs, Output{
			ID:        "drm:" + c.Entry,
			Name:      name,
			Connector: OutputName(c.Name),
			BuiltIn:   c.BuiltIn,
			Buses:     c.Buses,
		})
	}

	for i := range outs {
		outs[i].Index = i + 1
	}
	d.Logger.Debugw("discovered outputs", "count", len(outs), "backlight", backlight)
	return outs, nil
}
