package backend

import (
	"fmt"
	"strconv"

	"displayctl/internal/command"
)

const controlMyMonitor = "ControlMyMonitor.exe"

// ControlMyMonitor drives the NirSoft tool. The monitor behind a GDI device is
// addressed as <device>\Monitor<bus>.
type ControlMyMonitor struct {
	Runner command.Runner
}

func (c *ControlMyMonitor) Name() string { return NameControlMyMonitor }
func (c *ControlMyMonitor) Scoped() bool { return true }

func (c *ControlMyMonitor) monitor(t Target) (string, error) {
	if err := command.ValidDisplayDevice(t.Output.Device); err != nil {
		return "", err
	}
	if err := command.ValidBus(t.Bus); err != nil {
		return "", err
	}
	if _, err := c.Runner.LookPath(controlMyMonitor); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return fmt.Sprintf(`%s\Monitor%d`, t.Output.Device, t.Bus), nil
}

// Get runs /GetValue; the tool reports the value as its exit code.
func (c *ControlMyMonitor) Get(t Target) (float64, error) {
	mon, err := c.monitor(t)
	if err != nil {
		return 0, err
	}
	res, err := c.Runner.Run(command.Request{Name: controlMyMonitor, Args: []string{"/GetValue", mon, "10"}})
	if err != nil {
		return 0, err
	}
	if res.ExitCode < 0 || res.ExitCode > 100 {
		return 0, fmt.Errorf("%s returned %d", controlMyMonitor, res.ExitCode)
	}
	return float64(res.ExitCode) / 100, nil
}

// Set runs /SetValue with round(value*100).
func (c *ControlMyMonitor) Set(t Target, value float64) error {
	mon, err := c.monitor(t)
	if err != nil {
		return err
	}
	raw := int(Clamp(value)*100 + 0.5)
	res, err := c.Runner.Run(command.Request{Name: controlMyMonitor, Args: []string{"/SetValue", mon, "10", strconv.Itoa(raw)}})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s exited with %d", controlMyMonitor, res.ExitCode)
	}
	return nil
}
