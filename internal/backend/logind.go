package backend

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindSession = "/org/freedesktop/login1/session/auto"
)

// Logind sets backlight brightness through the caller's login session, which
// logind permits for the active seat without root.
type Logind struct {
	Object func() (dbus.BusObject, error)
}

// NewLogind uses the shared system bus connection.
func NewLogind() *Logind {
	return &Logind{Object: func() (dbus.BusObject, error) {
		conn, err := dbus.SystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn.Object(logindDest, logindSession), nil
	}}
}

// SetBrightness calls org.freedesktop.login1.Session.SetBrightness.
func (l *Logind) SetBrightness(subsystem, device string, value uint32) error {
	obj, err := l.Object()
	if err != nil {
		return err
	}
	if err := obj.Call(logindDest+".Session.SetBrightness", 0, subsystem, device, value).Err; err != nil {
		return fmt.Errorf("logind SetBrightness: %w", err)
	}
	return nil
}
