// Package topology enumerates connected display outputs and the hardware
// buses that may carry control traffic to them.
package topology

import (
	"errors"
	"strings"
)

// ErrUnsupported is returned by discovery on platforms without an implementation.
var ErrUnsupported = errors.New("topology: display discovery not supported on this platform")

// Origin tells how a bus candidate was associated with its display.
type Origin int

const (
	// Primary is the bus the platform reports as native to the output.
	Primary Origin = iota
	// Secondary is an alternate, separately designated route.
	Secondary
)

func (o Origin) String() string {
	if o == Secondary {
		return "secondary"
	}
	return "primary"
}

func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// BusCandidate is a control path that might reach a display.
type BusCandidate struct {
	Bus    int    `json:"bus" yaml:"bus"`
	Origin Origin `json:"origin" yaml:"origin"`
}

// Output is one connected display as discovered on this platform.
type Output struct {
	ID        string         `json:"id" yaml:"id"`                                   // Stable within a session, e.g. "drm:card1-DP-1"
	Name      string         `json:"name" yaml:"name"`                               // Best-effort human-readable name
	Connector string         `json:"connector,omitempty" yaml:"connector,omitempty"` // Output name known to the compositor, e.g. "HDMI-1"
	BuiltIn   bool           `json:"builtIn" yaml:"builtIn"`
	Buses     []BusCandidate `json:"buses,omitempty" yaml:"buses,omitempty"`
	Backlight string         `json:"backlight,omitempty" yaml:"backlight,omitempty"` // Backlight device for the panel entry
	Device    string         `json:"device,omitempty" yaml:"device,omitempty"`       // Platform device name, e.g. \\.\DISPLAY1
	Index     int            `json:"index" yaml:"index"`                             // 1-based enumeration position
	Handle    uintptr        `json:"-" yaml:"-"`                                     // Platform handle (HMONITOR, CGDirectDisplayID)
}

// Discoverer lists the currently connected outputs.
type Discoverer interface {
	Discover() ([]Output, error)
}

// addBus appends a candidate unless the bus is already present.
func addBus(buses []BusCandidate, bus int, origin Origin) []BusCandidate {
	for _, b := range buses {
		if b.Bus == bus {
			return buses
		}
	}
	return append(buses, BusCandidate{Bus: bus, Origin: origin})
}

var builtinPrefixes = []string{"eDP", "LVDS", "DSI"}

// IsBuiltinConnector reports whether a connector name denotes an internal panel.
func IsBuiltinConnector(connector string) bool {
	for _, p := range builtinPrefixes {
		if strings.HasPrefix(connector, p) {
			return true
		}
	}
	return false
}

// OutputName maps a DRM connector name to the name used by X11 and
// compositors, which drop the HDMI type letter.
func OutputName(connector string) string {
	if rest, ok := strings.CutPrefix(connector, "HDMI-A-"); ok {
		return "HDMI-" + rest
	}
	return connector
}

// markSingleBuiltin applies the single-output heuristic: when nothing is known
// about connector types, a lone output is taken to be the built-in panel.
func markSingleBuiltin(outs []Output) {
	if len(outs) == 1 {
		outs[0].BuiltIn = true
	}
}
