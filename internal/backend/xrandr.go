package backend

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"displayctl/internal/command"
	"displayctl/internal/topology"
)

// XRandR applies gamma dimming through the xrandr command.
type XRandR struct {
	Runner command.Runner
}

func (x *XRandR) Name() string { return "xrandr" }

func (x *XRandR) output(out topology.Output) (string, error) {
	if out.Connector == "" {
		return "", ErrUnsupported
	}
	if err := command.ValidOutputName(out.Connector); err != nil {
		return "", err
	}
	if _, err := x.Runner.LookPath("xrandr"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return out.Connector, nil
}

// Apply runs `xrandr --output NAME --brightness F`.
func (x *XRandR) Apply(out topology.Output, factor float64) error {
	name, err := x.output(out)
	if err != nil {
		return err
	}
	res, err := x.Runner.Run(command.Request{
		Name: "xrandr",
		Args: []string{"--output", name, "--brightness", strconv.FormatFloat(Clamp(factor), 'f', 4, 64)},
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("xrandr exited with %d", res.ExitCode)
	}
	return nil
}

// Factor parses the Brightness line of the output in `xrandr --verbose`.
func (x *XRandR) Factor(out topology.Output) (float64, error) {
	name, err := x.output(out)
	if err != nil {
		return 0, err
	}
	res, err := x.Runner.Run(command.Request{Name: "xrandr", Args: []string{"--verbose"}})
	if err != nil {
		return 0, err
	}
	if !res.OK() {
		return 0, fmt.Errorf("xrandr exited with %d", res.ExitCode)
	}
	return ParseXRandRBrightness(res.Stdout, name)
}

// ParseXRandRBrightness finds "Brightness: F" inside the block of output name.
func ParseXRandRBrightness(data []byte, name string) (float64, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	current := ""
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] != ' ' && line[0] != '\t' {
			fields := strings.Fields(line)
			current = ""
			if len(fields) > 1 && (fields[1] == "connected" || fields[1] == "disconnected") {
				current = fields[0]
			}
			continue
		}
		if current != name {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(trimmed, "Brightness:"); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid xrandr brightness %q: %w", v, err)
			}
			return Clamp(f), nil
		}
	}
	return 0, fmt.Errorf("no brightness for output %s", name)
}
