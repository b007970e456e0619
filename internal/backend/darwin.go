//go:build darwin

package backend

import (
	"fmt"

	"displayctl/internal/quartz"
	"displayctl/internal/topology"
)

// Framework is one of the macOS brightness API tiers.
type Framework struct {
	name string
	get  func(display uint32) (float64, error)
	set  func(display uint32, value float64) error
}

func (f *Framework) Name() string { return f.name }
func (f *Framework) Scoped() bool { return false }

func (f *Framework) Get(t Target) (float64, error) {
	if t.Output.Handle == 0 {
		return 0, ErrUnsupported
	}
	v, err := f.get(uint32(t.Output.Handle))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", f.name, err)
	}
	return Clamp(v), nil
}

func (f *Framework) Set(t Target, value float64) error {
	if t.Output.Handle == 0 {
		return ErrUnsupported
	}
	if err := f.set(uint32(t.Output.Handle), Clamp(value)); err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}
	return nil
}

// Transfer applies gamma through the CoreGraphics transfer tables.
type Transfer struct{}

func (Transfer) Name() string { return "quartz" }

func (Transfer) Apply(out topology.Output, factor float64) error {
	display := uint32(out.Handle)
	size := quartz.GammaCapacity(display)
	if size == 0 {
		return ErrUnsupported
	}
	ramp := Ramp(size, factor)
	table := make([]float32, size)
	for i, v := range ramp {
		table[i] = float32(v) / 65535
	}
	return quartz.SetTransfer(display, table)
}

func (Transfer) Factor(out topology.Output) (float64, error) {
	table, err := quartz.Transfer(uint32(out.Handle))
	if err != nil {
		return 0, err
	}
	if len(table) == 0 {
		return 1, nil
	}
	return Clamp(float64(table[len(table)-1])), nil
}

// Platform returns the macOS backend chain.
func Platform(d Deps) Chain {
	hardware := []Backend{
		NewM1DDC(d.Runner),
		NewDDCCtl(d.Runner),
		&Framework{name: NameDisplayServices, get: quartz.DisplayServicesBrightness, set: quartz.SetDisplayServicesBrightness},
		&Framework{name: NameCoreDisplay, get: quartz.CoreDisplayBrightness, set: quartz.SetCoreDisplayBrightness},
		&Framework{name: NameIOKit, get: quartz.IOKitBrightness, set: quartz.SetIOKitBrightness},
	}
	return d.assemble(hardware, NewGamma(d.logger(), Transfer{}))
}
