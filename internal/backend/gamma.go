package backend

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"displayctl/internal/topology"
)

// Applier applies a linear dimming factor to one output's colour pipeline.
type Applier interface {
	Name() string
	Apply(out topology.Output, factor float64) error
	Factor(out topology.Output) (float64, error)
}

// Ramp builds a linear lookup table of size entries scaled by factor.
func Ramp(size int, factor float64) []uint16 {
	if size <= 0 {
		return nil
	}
	factor = Clamp(factor)
	ramp := make([]uint16, size)
	if size == 1 {
		ramp[0] = uint16(math.Round(65535 * factor))
		return ramp
	}
	for i := range ramp {
		v := float64(i) / float64(size-1) * 65535 * factor
		ramp[i] = uint16(math.Round(math.Min(math.Max(v, 0), 65535)))
	}
	return ramp
}

// RampFactor recovers the factor from the top entry of a ramp.
func RampFactor(ramp []uint16) float64 {
	if len(ramp) == 0 {
		return 1
	}
	return Clamp(float64(ramp[len(ramp)-1]) / 65535)
}

// Gamma is the software dimming backend. It tries its appliers in order.
type Gamma struct {
	Appliers []Applier
	Logger   *zap.SugaredLogger
}

// NewGamma returns a gamma backend over the given appliers.
func NewGamma(logger *zap.SugaredLogger, appliers ...Applier) *Gamma {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Gamma{Appliers: appliers, Logger: logger}
}

func (g *Gamma) Name() string { return NameGamma }
func (g *Gamma) Scoped() bool { return false }

// Get reads the factor back from the first applier that can.
func (g *Gamma) Get(t Target) (float64, error) {
	var errs []error
	for _, a := range g.Appliers {
		f, err := a.Factor(t.Output)
		if err == nil {
			return Clamp(f), nil
		}
		g.Logger.Debugw("gamma read failed", "applier", a.Name(), "display", t.Output.ID, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
	}
	if len(errs) == 0 {
		return 0, ErrUnsupported
	}
	return 0, errors.Join(errs...)
}

// Set applies the factor with the first applier that succeeds.
func (g *Gamma) Set(t Target, value float64) error {
	value = Clamp(value)
	var errs []error
	for _, a := range g.Appliers {
		err := a.Apply(t.Output, value)
		if err == nil {
			return nil
		}
		g.Logger.Debugw("gamma apply failed", "applier", a.Name(), "display", t.Output.ID, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
	}
	if len(errs) == 0 {
		return ErrUnsupported
	}
	return errors.Join(errs...)
}
