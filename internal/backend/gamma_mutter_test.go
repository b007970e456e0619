//go:build linux

package backend

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"displayctl/internal/topology"
)

var errStaleSerial = errors.New("the requested configuration is based on stale information")

// fakeDisplayConfig serves one active CRTC driving DP-1. HDMI-1 is connected
// but has no CRTC.
type fakeDisplayConfig struct {
	serial uint32
	ramp   []uint16
}

func (f *fakeDisplayConfig) answer(method string, args []interface{}) *dbus.Call {
	switch method {
	case mutterIface + ".GetResources":
		outputs := []mutterOutput{
			{ID: 51, CurrentCrtc: 0, Name: "DP-1"},
			{ID: 52, CurrentCrtc: -1, Name: "HDMI-1"},
		}
		return &dbus.Call{Body: []interface{}{
			f.serial, []mutterCrtc{{ID: 0}}, outputs, []mutterMode{}, int32(7680), int32(4320),
		}}
	case mutterIface + ".GetCrtcGamma":
		if args[0].(uint32) != f.serial {
			return &dbus.Call{Err: errStaleSerial}
		}
		return &dbus.Call{Body: []interface{}{f.ramp, f.ramp, f.ramp}}
	case mutterIface + ".SetCrtcGamma":
		if args[0].(uint32) != f.serial {
			return &dbus.Call{Err: errStaleSerial}
		}
		f.ramp = args[2].([]uint16)
		return &dbus.Call{}
	}
	return &dbus.Call{Err: errors.New("unknown method " + method)}
}

func newFakeMutter(cfg *fakeDisplayConfig) (*Mutter, *fakeObject) {
	obj := &fakeObject{answer: cfg.answer}
	return &Mutter{Object: func() (dbus.BusObject, error) { return obj, nil }}, obj
}

func TestMutterRequeriesOnStaleSerial(t *testing.T) {
	cfg := &fakeDisplayConfig{serial: 1, ramp: Ramp(4, 1)}
	m, obj := newFakeMutter(cfg)
	out := topology.Output{ID: "drm:card0-DP-1", Connector: "DP-1"}

	require.NoError(t, m.Apply(out, 0.5))
	assert.Equal(t, Ramp(4, 0.5), cfg.ramp)
	assert.Equal(t, []string{"GetResources", "GetCrtcGamma", "SetCrtcGamma"}, obj.methods())

	// A hotplug bumps the serial; the cached CRTC is rejected once and re-read.
	cfg.serial = 2
	obj.calls = nil
	require.NoError(t, m.Apply(out, 0.25))
	assert.Equal(t, Ramp(4, 0.25), cfg.ramp)
	assert.Equal(t, []string{"SetCrtcGamma", "GetResources", "GetCrtcGamma", "SetCrtcGamma"}, obj.methods())

	obj.calls = nil
	f, err := m.Factor(out)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f, 0.001)
	assert.Equal(t, []string{"GetCrtcGamma"}, obj.methods())
}

func TestMutterUnsupportedOutputs(t *testing.T) {
	m, _ := newFakeMutter(&fakeDisplayConfig{serial: 1, ramp: Ramp(4, 1)})

	assert.ErrorIs(t, m.Apply(topology.Output{ID: "backlight"}, 0.5), ErrUnsupported)
	assert.ErrorIs(t, m.Apply(topology.Output{ID: "drm:card0-HDMI-A-1", Connector: "HDMI-1"}, 0.5), ErrUnsupported)

	_, err := m.Factor(topology.Output{ID: "drm:card0-HDMI-A-1", Connector: "HDMI-1"})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMutterBusUnavailable(t *testing.T) {
	m := &Mutter{Object: func() (dbus.BusObject, error) { return nil, errors.New("no session bus") }}
	assert.Error(t, m.Apply(topology.Output{Connector: "DP-1"}, 0.5))
}
