//go:build linux

package backend

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"displayctl/internal/topology"
)

const (
	mutterDest  = "org.gnome.Shell"
	mutterPath  = "/org/gnome/Mutter/DisplayConfig"
	mutterIface = "org.gnome.Mutter.DisplayConfig"
)

type mutterCrtc struct {
	ID               uint32
	Winsys           int64
	X, Y             int32
	Width, Height    int32
	CurrentMode      int32
	CurrentTransform uint32
	Transforms       []uint32
	Props            map[string]dbus.Variant
}

type mutterOutput struct {
	ID            uint32
	Winsys        int64
	CurrentCrtc   int32
	PossibleCrtcs []uint32
	Name          string
	Modes         []uint32
	Clones        []uint32
	Props         map[string]dbus.Variant
}

type mutterMode struct {
	ID        uint32
	Winsys    int64
	Width     uint32
	Height    uint32
	Frequency float64
	Flags     uint32
}

type mutterCrtcRef struct {
	crtc uint32
	size int
}

// Mutter drives CRTC gamma through the GNOME DisplayConfig interface.
type Mutter struct {
	Object func() (dbus.BusObject, error)

	mu     sync.Mutex
	serial uint32
	crtcs  map[string]mutterCrtcRef // output name to its CRTC
}

// NewMutter uses the shared session bus connection.
func NewMutter() *Mutter {
	return &Mutter{Object: func() (dbus.BusObject, error) {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		return conn.Object(mutterDest, mutterPath), nil
	}}
}

func (m *Mutter) Name() string { return "mutter" }

// refresh re-reads GetResources and the gamma size of every active CRTC.
// Callers hold m.mu.
func (m *Mutter) refresh(obj dbus.BusObject) error {
	var (
		serial     uint32
		crtcs      []mutterCrtc
		outputs    []mutterOutput
		modes      []mutterMode
		maxW, maxH int32
	)
	err := obj.Call(mutterIface+".GetResources", 0).Store(&serial, &crtcs, &outputs, &modes, &maxW, &maxH)
	if err != nil {
		return fmt.Errorf("GetResources: %w", err)
	}

	refs := make(map[string]mutterCrtcRef, len(outputs))
	for _, o := range outputs {
		if o.CurrentCrtc < 0 {
			continue
		}
		crtc := uint32(o.CurrentCrtc)
		var red, green, blue []uint16
		if err := obj.Call(mutterIface+".GetCrtcGamma", 0, serial, crtc).Store(&red, &green, &blue); err != nil {
			continue
		}
		refs[o.Name] = mutterCrtcRef{crtc: crtc, size: len(red)}
	}

	m.serial = serial
	m.crtcs = refs
	return nil
}

// lookup returns the CRTC for name, re-querying resources once if needed.
func (m *Mutter) lookup(obj dbus.BusObject, name string, force bool) (mutterCrtcRef, error) {
	if ref, ok := m.crtcs[name]; ok && !force {
		return ref, nil
	}
	if err := m.refresh(obj); err != nil {
		return mutterCrtcRef{}, err
	}
	ref, ok := m.crtcs[name]
	if !ok || ref.size == 0 {
		return mutterCrtcRef{}, fmt.Errorf("%w: mutter has no crtc for %s", ErrUnsupported, name)
	}
	return ref, nil
}

// Apply sets a linear ramp on the output's CRTC.
func (m *Mutter) Apply(out topology.Output, factor float64) error {
	if out.Connector == "" {
		return ErrUnsupported
	}
	obj, err := m.Object()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set := func(force bool) error {
		ref, err := m.lookup(obj, out.Connector, force)
		if err != nil {
			return err
		}
		ramp := Ramp(ref.size, factor)
		return obj.Call(mutterIface+".SetCrtcGamma", 0, m.serial, ref.crtc, ramp, ramp, ramp).Err
	}
	if err := set(false); err != nil {
		// The serial changes on every hotplug; retry against fresh resources.
		return set(true)
	}
	return nil
}

// Factor reads the output's current ramp.
func (m *Mutter) Factor(out topology.Output) (float64, error) {
	if out.Connector == "" {
		return 0, ErrUnsupported
	}
	obj, err := m.Object()
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ref, err := m.lookup(obj, out.Connector, false)
	if err != nil {
		return 0, err
	}
	var red, green, blue []uint16
	if err := obj.Call(mutterIface+".GetCrtcGamma", 0, m.serial, ref.crtc).Store(&red, &green, &blue); err != nil {
		return 0, fmt.Errorf("GetCrtcGamma: %w", err)
	}
	return RampFactor(red), nil
}
