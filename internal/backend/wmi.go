package backend

import (
	"fmt"

	"displayctl/internal/command"
)

// WMI serves built-in panels through the WmiMonitorBrightness classes.
type WMI struct {
	Runner command.Runner
	// Query returns CurrentBrightness of the active panel in percent.
	Query func() (uint8, error)
}

func (w *WMI) Name() string { return NameWMI }
func (w *WMI) Scoped() bool { return false }

// Get reads CurrentBrightness.
func (w *WMI) Get(t Target) (float64, error) {
	if !t.Output.BuiltIn || w.Query == nil {
		return 0, ErrUnsupported
	}
	v, err := w.Query()
	if err != nil {
		return 0, err
	}
	return Clamp(float64(v) / 100), nil
}

// Set calls WmiSetBrightness through PowerShell.
func (w *WMI) Set(t Target, value float64) error {
	if !t.Output.BuiltIn {
		return ErrUnsupported
	}
	if _, err := w.Runner.LookPath("powershell"); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	res, err := w.Runner.Run(command.Request{Name: "powershell", Args: wmiSetArgs(int(Clamp(value)*100 + 0.5))})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("WmiSetBrightness exited with %d", res.ExitCode)
	}
	return nil
}

func wmiSetArgs(percent int) []string {
	script := fmt.Sprintf("(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,%d)", percent)
	return []string{"-NoProfile", "-NonInteractive", "-Command", script}
}
