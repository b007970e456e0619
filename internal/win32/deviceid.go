// Package win32 wraps the user32, dxva2 and gdi32 calls and the registry
// lookups used to enumerate and control monitors on Windows.
package win32

import (
	"fmt"
	"strings"
)

// MonitorDeviceID is a parsed EnumDisplayDevices monitor ID such as
// `MONITOR\DEL4098\{4d36e96e-e325-11ce-bfc1-08002be10318}\0001`.
type MonitorDeviceID struct {
	Model  string // PNP model, e.g. "DEL4098"
	Driver string // Driver key, e.g. `{4d36e96e-...}\0001`
}

// ParseMonitorDeviceID splits a monitor device ID.
func ParseMonitorDeviceID(id string) (MonitorDeviceID, error) {
	parts := strings.Split(id, `\`)
	if len(parts) < 4 || !strings.EqualFold(parts[0], "MONITOR") || parts[1] == "" {
		return MonitorDeviceID{}, fmt.Errorf("unexpected monitor device id %q", id)
	}
	return MonitorDeviceID{
		Model:  parts[1],
		Driver: strings.Join(parts[2:], `\`),
	}, nil
}

// RegistryPath returns the Enum\DISPLAY key holding the model's instances.
func (m MonitorDeviceID) RegistryPath() string {
	return `SYSTEM\CurrentControlSet\Enum\DISPLAY\` + m.Model
}
