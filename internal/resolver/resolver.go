// Package resolver walks the backend chain for a display and remembers which
// backend and bus last worked, separately for reads and writes.
package resolver

import (
	"sync"

	"go.uber.org/zap"

	"displayctl/internal/backend"
	"displayctl/internal/topology"
)

// NoBus marks a route through a backend that is not bus scoped.
const NoBus = -1

// Unknown is the brightness reported when nothing can read it.
const Unknown = 1.0

// Route is the backend and bus that last served a display.
type Route struct {
	Backend string `json:"backend" yaml:"backend"`
	Bus     int    `json:"bus" yaml:"bus"`
}

// Resolver tries backends in priority order. It is safe for concurrent use
// across displays; calls for one display are expected to be serialized.
type Resolver struct {
	backends []backend.Backend
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	routes [2]map[string]Route // indexed by op
}

type op int

const (
	opGet op = iota
	opSet
)

// New returns a Resolver over backends, highest priority first.
func New(backends []backend.Backend, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resolver{
		backends: backends,
		logger:   logger,
		routes:   [2]map[string]Route{make(map[string]Route), make(map[string]Route)},
	}
}

type attempt struct {
	backend backend.Backend
	bus     int
}

func (r *Resolver) lookup(name string) backend.Backend {
	for _, b := range r.backends {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

func hasBus(out topology.Output, bus int) bool {
	for _, c := range out.Buses {
		if c.Bus == bus {
			return true
		}
	}
	return false
}

// attempts lists every (backend, bus) pair once, the route cached for o first.
func (r *Resolver) attempts(o op, out topology.Output) []attempt {
	var list []attempt
	seen := make(map[Route]bool)
	add := func(b backend.Backend, bus int) {
		key := Route{Backend: b.Name(), Bus: bus}
		if seen[key] {
			return
		}
		seen[key] = true
		list = append(list, attempt{backend: b, bus: bus})
	}

	r.mu.Lock()
	cached, ok := r.routes[o][out.ID]
	r.mu.Unlock()
	if ok {
		if b := r.lookup(cached.Backend); b != nil {
			if !b.Scoped() && cached.Bus == NoBus {
				add(b, NoBus)
			} else if b.Scoped() && hasBus(out, cached.Bus) {
				add(b, cached.Bus)
			}
		}
	}

	for _, b := range r.backends {
		if !b.Scoped() {
			add(b, NoBus)
			continue
		}
		for _, c := range out.Buses {
			add(b, c.Bus)
		}
	}
	return list
}

func (r *Resolver) remember(o op, id string, a attempt) {
	r.mu.Lock()
	r.routes[o][id] = Route{Backend: a.backend.Name(), Bus: a.bus}
	r.mu.Unlock()
}

// Get returns the brightness of out from the first backend that answers.
// When none does it returns Unknown and false.
func (r *Resolver) Get(out topology.Output) (float64, bool) {
	for _, a := range r.attempts(opGet, out) {
		v, err := a.backend.Get(backend.Target{Output: out, Bus: a.bus})
		if err != nil {
			r.logger.Debugw("brightness read failed",
				"display", out.ID, "backend", a.backend.Name(), "bus", a.bus, "err", err)
			continue
		}
		r.remember(opGet, out.ID, a)
		return backend.Clamp(v), true
	}
	return Unknown, false
}

// Set writes value to out through the first backend that accepts it.
func (r *Resolver) Set(out topology.Output, value float64) bool {
	value = backend.Clamp(value)
	for _, a := range r.attempts(opSet, out) {
		err := a.backend.Set(backend.Target{Output: out, Bus: a.bus}, value)
		if err != nil {
			r.logger.Debugw("brightness write failed",
				"display", out.ID, "backend", a.backend.Name(), "bus", a.bus, "err", err)
			continue
		}
		r.remember(opSet, out.ID, a)
		return true
	}
	return false
}

// Routes returns the cached routes keyed by display ID. A write route takes
// precedence over the read route of the same display.
func (r *Resolver) Routes() map[string]Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Route, len(r.routes[opGet]))
	for _, routes := range r.routes {
		for id, route := range routes {
			out[id] = route
		}
	}
	return out
}

// Forget drops routes for displays not in keep.
func (r *Resolver) Forget(keep []topology.Output) {
	present := make(map[string]bool, len(keep))
	for _, o := range keep {
		present[o.ID] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, routes := range r.routes {
		for id := range routes {
			if !present[id] {
				delete(routes, id)
			}
		}
	}
}

// Backends returns the backend names in priority order.
func (r *Resolver) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	return names
}
