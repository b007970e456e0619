// Package brightness is the public surface: list displays and change their
// hardware or software brightness.
package brightness

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"displayctl/internal/backend"
	"displayctl/internal/resolver"
	"displayctl/internal/topology"
)

var (
	// ErrEmptyID is returned when no display ID was given.
	ErrEmptyID = errors.New("brightness: empty display id")
	// ErrUnknownDisplay is returned when the ID matches no connected display.
	ErrUnknownDisplay = errors.New("brightness: unknown display")
)

// Display is a snapshot of one connected output.
type Display struct {
	ID                 string  `json:"id" yaml:"id"`
	Name               string  `json:"name" yaml:"name"`
	IsBuiltIn          bool    `json:"isBuiltIn" yaml:"isBuiltIn"`
	Brightness         float64 `json:"brightness" yaml:"brightness"`                 // Hardware level, 1.0 when unreadable
	SoftwareBrightness float64 `json:"softwareBrightness" yaml:"softwareBrightness"` // Gamma multiplier, default 1.0
}

// Options configures a Session.
type Options struct {
	Discoverer topology.Discoverer
	Chain      backend.Chain
	Logger     *zap.SugaredLogger
}

// Session owns the route caches for one process. Operations on one display
// must not run concurrently; distinct displays may.
type Session struct {
	discoverer topology.Discoverer
	hardware   *resolver.Resolver
	software   *resolver.Resolver
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	outputs []topology.Output
}

// NewSession builds a Session from opts.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var software []backend.Backend
	if opts.Chain.Gamma != nil {
		software = []backend.Backend{opts.Chain.Gamma}
	}
	return &Session{
		discoverer: opts.Discoverer,
		hardware:   resolver.New(opts.Chain.Hardware, logger.Named("hardware")),
		software:   resolver.New(software, logger.Named("software")),
		logger:     logger,
	}
}

// Clamp limits v to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	return backend.Clamp(v)
}

func (s *Session) discover() ([]topology.Output, error) {
	if s.discoverer == nil {
		return nil, topology.ErrUnsupported
	}
	outs, err := s.discoverer.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover displays: %w", err)
	}
	s.mu.Lock()
	s.outputs = outs
	s.mu.Unlock()

	s.hardware.Forget(outs)
	s.software.Forget(outs)
	return outs, nil
}

func (s *Session) snapshot(out topology.Output) Display {
	hw, ok := s.hardware.Get(out)
	if !ok {
		s.logger.Debugw("no backend could read brightness", "display", out.ID)
	}
	sw, _ := s.software.Get(out)
	return Display{
		ID:                 out.ID,
		Name:               out.Name,
		IsBuiltIn:          out.BuiltIn,
		Brightness:         Clamp(hw),
		SoftwareBrightness: Clamp(sw),
	}
}

// ListDisplays discovers the connected displays and reads their brightness.
// Only discovery failures are returned as errors.
func (s *Session) ListDisplays() ([]Display, error) {
	outs, err := s.discover()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, 0, len(outs))
	for _, out := range outs {
		displays = append(displays, s.snapshot(out))
	}
	return displays, nil
}

// Display reads a single display.
func (s *Session) Display(id string) (Display, error) {
	out, err := s.output(id)
	if err != nil {
		return Display{}, err
	}
	return s.snapshot(out), nil
}

// output resolves id against the last discovery, re-discovering once.
func (s *Session) output(id string) (topology.Output, error) {
	if id == "" {
		return topology.Output{}, ErrEmptyID
	}

	s.mu.Lock()
	known := s.outputs
	s.mu.Unlock()
	if out, ok := find(known, id); ok {
		return out, nil
	}

	outs, err := s.discover()
	if err != nil {
		return topology.Output{}, err
	}
	if out, ok := find(outs, id); ok {
		return out, nil
	}
	return topology.Output{}, fmt.Errorf("%w: %s", ErrUnknownDisplay, id)
}

func find(outs []topology.Output, id string) (topology.Output, bool) {
	for _, o := range outs {
		if o.ID == id {
			return o, true
		}
	}
	return topology.Output{}, false
}

// SetBrightness sets the hardware brightness. It reports false when every
// backend failed.
func (s *Session) SetBrightness(id string, value float64) (bool, error) {
	out, err := s.output(id)
	if err != nil {
		return false, err
	}
	value = Clamp(value)
	ok := s.hardware.Set(out, value)
	s.logger.Debugw("set brightness", "display", id, "value", value, "ok", ok)
	return ok, nil
}

// SetSoftwareBrightness sets the gamma multiplier only.
func (s *Session) SetSoftwareBrightness(id string, value float64) (bool, error) {
	out, err := s.output(id)
	if err != nil {
		return false, err
	}
	value = Clamp(value)
	ok := s.software.Set(out, value)
	s.logger.Debugw("set software brightness", "display", id, "value", value, "ok", ok)
	return ok, nil
}

// Outputs returns the outputs of the last discovery.
func (s *Session) Outputs() []topology.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]topology.Output(nil), s.outputs...)
}

// Routes returns the cached hardware routes keyed by display ID.
func (s *Session) Routes() map[string]resolver.Route {
	return s.hardware.Routes()
}

// Backends lists the hardware backend names in priority order.
func (s *Session) Backends() []string {
	return s.hardware.Backends()
}
