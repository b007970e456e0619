//go:build windows

package topology

import (
	"fmt"

	"go.uber.org/zap"

	"displayctl/internal/command"
	"displayctl/internal/edid"
	"displayctl/internal/win32"
)

// MonitorDiscoverer enumerates HMONITORs and their physical monitors.
type MonitorDiscoverer struct {
	Logger *zap.SugaredLogger
}

// System returns the discoverer for this platform.
func System(_ command.Runner, logger *zap.SugaredLogger) Discoverer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &MonitorDiscoverer{Logger: logger}
}

// Discover lists monitors in EnumDisplayMonitors order. Each physical monitor
// behind an HMONITOR becomes a bus candidate, the first one primary.
func (d *MonitorDiscoverer) Discover() ([]Output, error) {
	monitors, err := win32.EnumMonitors()
	if err != nil {
		return nil, err
	}

	outs := make([]Output, 0, len(monitors))
	for i, m := range monitors {
		out := Output{
			ID:     fmt.Sprintf("win:%d", i),
			Device: m.Device,
			Index:  i + 1,
			Handle: uintptr(m.Handle),
		}

		var description string
		err := win32.WithPhysicalMonitors(m.Handle, func(pms []win32.PhysicalMonitor) error {
			for j, pm := range pms {
				origin := Primary
				if j > 0 {
					origin = Secondary
				}
				out.Buses = addBus(out.Buses, j, origin)
				if description == "" {
					description = pm.Description
				}
			}
			return nil
		})
		if err != nil {
			d.Logger.Debugw("no physical monitors", "device", m.Device, "err", err)
		}

		out.Name = d.registryName(m.Device)
		if out.Name == "" {
			out.Name = description
		}
		if out.Name == "" || out.Name == "Generic PnP Monitor" {
			out.Name = fmt.Sprintf("Display %d", i+1)
		}
		outs = append(outs, out)
	}

	markSingleBuiltin(outs)
	return outs, nil
}

func (d *MonitorDiscoverer) registryName(device string) string {
	id, err := win32.MonitorDeviceIDFor(device)
	if err != nil {
		d.Logger.Debugw("no monitor device id", "device", device, "err", err)
		return ""
	}
	blob, err := win32.EDID(id)
	if err != nil {
		d.Logger.Debugw("no registry edid", "device", device, "err", err)
		return ""
	}
	return edid.DisplayName(blob)
}
