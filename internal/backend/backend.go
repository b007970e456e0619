// Package backend holds the brightness control mechanisms. Every mechanism
// implements Backend; the resolver walks them in priority order.
package backend

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"displayctl/internal/command"
	"displayctl/internal/privilege"
	"displayctl/internal/topology"
)

var (
	// ErrUnsupported means the backend cannot serve this display at all.
	ErrUnsupported = errors.New("backend: not supported for this display")
	// ErrPermission means the control path exists but the user may not use it.
	ErrPermission = errors.New("backend: permission denied")
)

// Backend name constants, also used as config keys for backend.disabled.
const (
	NameDDCCI            = "ddcci"
	NameDDCUtil          = "ddcutil"
	NameSysfs            = "sysfs"
	NameGamma            = "gamma"
	NameM1DDC            = "m1ddc"
	NameDDCCtl           = "ddcctl"
	NameDisplayServices  = "displayservices"
	NameCoreDisplay      = "coredisplay"
	NameIOKit            = "iokit"
	NameDXVA2            = "dxva2"
	NameControlMyMonitor = "controlmymonitor"
	NameWMI              = "wmi"
)

// Target is one attempt: a display and, for bus-scoped backends, the bus.
type Target struct {
	Output topology.Output
	Bus    int
}

// Backend reads and writes normalized brightness for one control mechanism.
// Ordinary non-support is reported as an error, never a panic.
type Backend interface {
	Name() string
	// Scoped reports whether the backend is tried once per bus candidate.
	Scoped() bool
	Get(t Target) (float64, error)
	Set(t Target, value float64) error
}

// Gate reports whether raw bus access may be attempted.
type Gate interface {
	Ensure() privilege.Result
}

// Deps carries what the platform backends need.
type Deps struct {
	Runner        command.Runner
	Gate          Gate
	Logger        *zap.SugaredLogger
	Settle        time.Duration
	GammaFallback bool     // include gamma in the hardware chain
	Disabled      []string // backend names to leave out
	Getenv        func(string) string
}

func (d Deps) logger() *zap.SugaredLogger {
	if d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}

// Chain is the ordered hardware list plus the dedicated software backend.
type Chain struct {
	Hardware []Backend
	Gamma    Backend
}

func (d Deps) assemble(hardware []Backend, gamma Backend) Chain {
	disabled := make(map[string]bool, len(d.Disabled))
	for _, name := range d.Disabled {
		disabled[name] = true
	}

	var chain Chain
	for _, b := range hardware {
		if !disabled[b.Name()] {
			chain.Hardware = append(chain.Hardware, b)
		}
	}
	if gamma != nil && !disabled[gamma.Name()] {
		chain.Gamma = gamma
		if d.GammaFallback {
			chain.Hardware = append(chain.Hardware, gamma)
		}
	}
	return chain
}

// Clamp limits v to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
