//go:build windows

package backend

import (
	"fmt"

	"github.com/StackExchange/wmi"
	"golang.org/x/sys/windows"

	"displayctl/internal/topology"
	"displayctl/internal/win32"
)

// DXVA2 uses the monitor configuration API on the physical monitor with the
// bus index under the output's HMONITOR.
type DXVA2 struct{}

func (DXVA2) Name() string { return NameDXVA2 }
func (DXVA2) Scoped() bool { return true }

func physical(t Target, fn func(h windows.Handle) error) error {
	if t.Output.Handle == 0 {
		return ErrUnsupported
	}
	return win32.WithPhysicalMonitors(windows.Handle(t.Output.Handle), func(pms []win32.PhysicalMonitor) error {
		if t.Bus < 0 || t.Bus >= len(pms) {
			return fmt.Errorf("%w: no physical monitor %d", ErrUnsupported, t.Bus)
		}
		return fn(pms[t.Bus].Handle)
	})
}

// Get scales the current value into the monitor's min..max range.
func (DXVA2) Get(t Target) (float64, error) {
	var v float64
	err := physical(t, func(h windows.Handle) error {
		lo, cur, hi, err := win32.MonitorBrightness(h)
		if err != nil {
			return err
		}
		if hi <= lo {
			return fmt.Errorf("monitor reports brightness range %d..%d", lo, hi)
		}
		v = Clamp(float64(int64(cur)-int64(lo)) / float64(hi-lo))
		return nil
	})
	return v, err
}

// Set writes lo + value*(hi-lo).
func (DXVA2) Set(t Target, value float64) error {
	return physical(t, func(h windows.Handle) error {
		lo, _, hi, err := win32.MonitorBrightness(h)
		if err != nil {
			return err
		}
		if hi <= lo {
			return fmt.Errorf("monitor reports brightness range %d..%d", lo, hi)
		}
		raw := lo + uint32(Clamp(value)*float64(hi-lo)+0.5)
		return win32.SetMonitorBrightness(h, raw)
	})
}

// WmiMonitorBrightness mirrors the root\WMI class of the same name.
type WmiMonitorBrightness struct {
	CurrentBrightness uint8
	Active            bool
}

func queryWMIBrightness() (uint8, error) {
	var dst []WmiMonitorBrightness
	q := wmi.CreateQuery(&dst, "WHERE Active=TRUE")
	if err := wmi.QueryNamespace(q, &dst, `root\WMI`); err != nil {
		return 0, fmt.Errorf("WmiMonitorBrightness query: %w", err)
	}
	if len(dst) == 0 {
		return 0, ErrUnsupported
	}
	return dst[0].CurrentBrightness, nil
}

// GDIGamma applies ramps through Set/GetDeviceGammaRamp.
type GDIGamma struct{}

func (GDIGamma) Name() string { return "gdi32" }

func (GDIGamma) Apply(out topology.Output, factor float64) error {
	if out.Device == "" {
		return ErrUnsupported
	}
	var ramp win32.GammaRamp
	channel := Ramp(len(ramp[0]), factor)
	for c := range ramp {
		copy(ramp[c][:], channel)
	}
	return win32.SetGammaRamp(out.Device, &ramp)
}

func (GDIGamma) Factor(out topology.Output) (float64, error) {
	if out.Device == "" {
		return 0, ErrUnsupported
	}
	ramp, err := win32.GetGammaRamp(out.Device)
	if err != nil {
		return 0, err
	}
	return RampFactor(ramp[0][:]), nil
}

// Platform returns the Windows backend chain.
func Platform(d Deps) Chain {
	hardware := []Backend{
		DXVA2{},
		&ControlMyMonitor{Runner: d.Runner},
		&WMI{Runner: d.Runner, Query: queryWMIBrightness},
	}
	return d.assemble(hardware, NewGamma(d.logger(), GDIGamma{}))
}
