//go:build linux

package backend

import "os"

// Wayland reports whether the session runs a Wayland compositor.
func Wayland(getenv func(string) string) bool {
	return getenv("WAYLAND_DISPLAY") != "" || getenv("XDG_SESSION_TYPE") == "wayland"
}

// Platform returns the Linux backend chain.
func Platform(d Deps) Chain {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	var appliers []Applier
	if Wayland(getenv) {
		appliers = append(appliers, NewMutter())
	} else {
		appliers = append(appliers, NewX11())
	}
	appliers = append(appliers, &XRandR{Runner: d.Runner})

	hardware := []Backend{
		NewDDCCI(d.Gate, d.Settle, d.logger()),
		NewDDCUtil(d.Runner),
		NewSysfs(d.Runner, NewLogind(), d.logger()),
	}
	return d.assemble(hardware, NewGamma(d.logger(), appliers...))
}
