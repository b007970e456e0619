//go:build darwin

package topology

import (
	"fmt"

	"go.uber.org/zap"

	"displayctl/internal/command"
	"displayctl/internal/quartz"
)

// QuartzDiscoverer enumerates active CoreGraphics displays.
type QuartzDiscoverer struct {
	Runner command.Runner
	Logger *zap.SugaredLogger
}

// System returns the discoverer for this platform.
func System(runner command.Runner, logger *zap.SugaredLogger) Discoverer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &QuartzDiscoverer{Runner: runner, Logger: logger}
}

// Discover lists active displays. The 1-based position doubles as the bus
// candidate, because m1ddc and ddcctl address displays by that number.
func (d *QuartzDiscoverer) Discover() ([]Output, error) {
	ids, err := quartz.ActiveDisplays()
	if err != nil {
		return nil, fmt.Errorf("failed to list displays: %w", err)
	}

	names := d.profilerNames()

	outs := make([]Output, 0, len(ids))
	for i, id := range ids {
		out := Output{
			ID:      fmt.Sprintf("cg:%d", id),
			BuiltIn: quartz.IsBuiltin(id),
			Index:   i + 1,
			Handle:  uintptr(id),
			Buses:   []BusCandidate{{Bus: i + 1, Origin: Primary}},
		}
		switch {
		case names[id] != "":
			out.Name = names[id]
		case out.BuiltIn:
			out.Name = "Built-in Display"
		default:
			out.Name = fmt.Sprintf("Display %d", i+1)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func (d *QuartzDiscoverer) profilerNames() map[uint32]string {
	res, err := d.Runner.Run(command.Request{Name: "system_profiler", Args: []string{"SPDisplaysDataType", "-json"}})
	if err != nil || !res.OK() {
		d.Logger.Debugw("system_profiler unavailable", "err", err)
		return nil
	}
	names, err := ParseSystemProfiler(res.Stdout)
	if err != nil {
		d.Logger.Debugw("system_profiler output", "err", err)
		return nil
	}
	return names
}
