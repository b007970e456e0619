package backend

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"

	"displayctl/internal/ddc"
)

// DDCCI talks DDC/CI directly on /dev/i2c-N.
type DDCCI struct {
	Gate   Gate
	Open   func(bus int) (io.ReadWriteCloser, error)
	Settle time.Duration
	Logger *zap.SugaredLogger

	mu  sync.Mutex
	max map[int]uint16 // last maximum read per bus
}

// NewDDCCI returns the raw bus backend using ddc.OpenBus.
func NewDDCCI(gate Gate, settle time.Duration, logger *zap.SugaredLogger) *DDCCI {
	return &DDCCI{
		Gate: gate,
		Open: func(bus int) (io.ReadWriteCloser, error) {
			return ddc.OpenBus(bus)
		},
		Settle: settle,
		Logger: logger,
		max:    make(map[int]uint16),
	}
}

func (d *DDCCI) Name() string { return NameDDCCI }
func (d *DDCCI) Scoped() bool { return true }

func (d *DDCCI) open(bus int) (io.ReadWriteCloser, error) {
	if d.Gate != nil {
		if res := d.Gate.Ensure(); !res.Usable() {
			return nil, fmt.Errorf("%w: i2c access %s", ErrPermission, res)
		}
	}
	port, err := d.Open(bus)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrPermission, err)
		}
		if errors.Is(err, ddc.ErrUnsupported) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("%w: %v", ddc.ErrTransport, err)
	}
	return port, nil
}

// Get reads VCP 0x10 from the bus.
func (d *DDCCI) Get(t Target) (float64, error) {
	port, err := d.open(t.Bus)
	if err != nil {
		return 0, err
	}
	defer port.Close()

	reply, err := ddc.NewClient(port, d.Settle).GetVCP(ddc.VCPBrightness)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	if d.max == nil {
		d.max = make(map[int]uint16)
	}
	d.max[t.Bus] = reply.Max
	d.mu.Unlock()

	v, clamped := reply.Normalized()
	if clamped && d.Logger != nil {
		d.Logger.Warnw("monitor reported brightness above maximum",
			"display", t.Output.ID, "bus", t.Bus, "current", reply.Current, "max", reply.Max)
	}
	return v, nil
}

// Set writes VCP 0x10, scaled to the maximum last read on this bus or 100.
func (d *DDCCI) Set(t Target, value float64) error {
	port, err := d.open(t.Bus)
	if err != nil {
		return err
	}
	defer port.Close()

	d.mu.Lock()
	max, ok := d.max[t.Bus]
	d.mu.Unlock()
	if !ok {
		max = 100
	}

	return ddc.NewClient(port, d.Settle).SetVCP(ddc.VCPBrightness, ddc.Scale(Clamp(value), max))
}
