// Package privilege decides whether the current user can reach raw I2C
// devices and, at most once per Bootstrapper, asks for durable access.
package privilege

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the permission state of a Bootstrapper.
type State int

const (
	NotAttempted State = iota
	Accessible
	InaccessibleAfterAttempt
)

func (s State) String() string {
	switch s {
	case Accessible:
		return "accessible"
	case InaccessibleAfterAttempt:
		return "inaccessible-after-attempt"
	default:
		return "not-attempted"
	}
}

// Result is the outcome reported to callers of Ensure and Setup.
type Result int

const (
	// Unavailable means no access and no elevation was (or could be) performed.
	Unavailable Result = iota
	// AlreadyAccessible means the bus opened without any elevation.
	AlreadyAccessible
	// Granted means elevation succeeded and the bus now opens.
	Granted
	// NeedsRelogin means elevation succeeded but the new group membership is
	// not active in this login session yet.
	NeedsRelogin
	// Refused means the user dismissed or was denied the elevation prompt.
	Refused
)

func (r Result) String() string {
	switch r {
	case AlreadyAccessible:
		return "accessible"
	case Granted:
		return "granted"
	case NeedsRelogin:
		return "needs-relogin"
	case Refused:
		return "refused"
	default:
		return "unavailable"
	}
}

// Usable reports whether raw bus access can be attempted.
func (r Result) Usable() bool {
	return r == AlreadyAccessible || r == Granted
}

// Devices abstracts the raw bus device nodes.
type Devices interface {
	// Probe reports whether any node opens read-write and how many exist.
	Probe() (accessible bool, found int)
	// LoadModule asks for the kernel driver that creates the nodes.
	LoadModule() error
	// WaitForNodes blocks until a node exists or timeout elapses.
	WaitForNodes(timeout time.Duration) bool
}

// Options configures a Bootstrapper.
type Options struct {
	Devices     Devices  // nil on platforms without raw bus access
	Elevator    Elevator // nil disables elevation
	User        string
	AutoElevate bool          // whether Ensure may prompt
	Wait        time.Duration // how long to wait for nodes after LoadModule
	Logger      *zap.SugaredLogger
}

// Bootstrapper owns the PermissionState of one session.
type Bootstrapper struct {
	opts Options

	mu     sync.Mutex
	state  State
	probed bool
	result Result
}

// NewBootstrapper returns a Bootstrapper in the NotAttempted state.
func NewBootstrapper(opts Options) *Bootstrapper {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Wait <= 0 {
		opts.Wait = 3 * time.Second
	}
	return &Bootstrapper{opts: opts}
}

// State returns the current permission state.
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Ensure checks bus access, elevating only when AutoElevate is set.
func (b *Bootstrapper) Ensure() Result {
	return b.run(b.opts.AutoElevate)
}

// Setup checks bus access and elevates if needed regardless of AutoElevate.
func (b *Bootstrapper) Setup() Result {
	return b.run(true)
}

func (b *Bootstrapper) run(elevate bool) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != NotAttempted {
		return b.result
	}
	if b.opts.Devices == nil {
		return Unavailable
	}

	if !b.probed {
		b.probed = true
		if b.probe() {
			b.state = Accessible
			b.result = AlreadyAccessible
			return b.result
		}
		b.result = Unavailable
	}

	if !elevate || b.opts.Elevator == nil {
		return b.result
	}

	b.result = b.elevate()
	if b.result.Usable() {
		b.state = Accessible
	} else {
		b.state = InaccessibleAfterAttempt
	}
	return b.result
}

// probe loads the kernel module if no nodes exist yet, then tests them.
func (b *Bootstrapper) probe() bool {
	ok, found := b.opts.Devices.Probe()
	if ok {
		return true
	}
	if found > 0 {
		return false
	}

	if err := b.opts.Devices.LoadModule(); err != nil {
		b.opts.Logger.Debugw("loading i2c-dev failed", "err", err)
	}
	if !b.opts.Devices.WaitForNodes(b.opts.Wait) {
		b.opts.Logger.Debugw("no i2c device nodes appeared", "wait", b.opts.Wait)
		return false
	}
	ok, _ = b.opts.Devices.Probe()
	return ok
}

func (b *Bootstrapper) elevate() Result {
	b.opts.Logger.Infow("requesting i2c access", "user", b.opts.User)

	outcome, err := b.opts.Elevator.Grant(b.opts.User)
	switch outcome {
	case OutcomeRefused:
		b.opts.Logger.Warnw("i2c access refused", "err", err)
		return Refused
	case OutcomeFailed:
		b.opts.Logger.Warnw("i2c access setup failed", "err", err)
		return Unavailable
	}

	if b.opts.Devices.WaitForNodes(b.opts.Wait) {
		if ok, _ := b.opts.Devices.Probe(); ok {
			return Granted
		}
	}
	b.opts.Logger.Infow("i2c access configured, log out and back in to apply group membership")
	return NeedsRelogin
}
