package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"displayctl/internal/command"
	"displayctl/internal/topology"
)

// BrightnessSetter is the logind Session.SetBrightness call.
type BrightnessSetter interface {
	SetBrightness(subsystem, device string, value uint32) error
}

// Sysfs drives /sys/class/backlight/<device> for the built-in panel entry.
type Sysfs struct {
	Root   string
	Logind BrightnessSetter
	Runner command.Runner
	Logger *zap.SugaredLogger
}

// NewSysfs returns the backlight backend rooted at topology.BacklightRoot.
func NewSysfs(runner command.Runner, logind BrightnessSetter, logger *zap.SugaredLogger) *Sysfs {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sysfs{Root: topology.BacklightRoot, Logind: logind, Runner: runner, Logger: logger}
}

func (s *Sysfs) Name() string { return NameSysfs }
func (s *Sysfs) Scoped() bool { return false }

func (s *Sysfs) device(t Target) (string, error) {
	name := t.Output.Backlight
	if name == "" {
		return "", ErrUnsupported
	}
	if err := command.ValidDeviceName(name); err != nil {
		return "", err
	}
	return name, nil
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

// Get returns brightness/max_brightness.
func (s *Sysfs) Get(t Target) (float64, error) {
	name, err := s.device(t)
	if err != nil {
		return 0, err
	}
	dir := filepath.Join(s.Root, name)

	cur, err := readInt(filepath.Join(dir, "brightness"))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s brightness: %w", name, err)
	}
	max, err := readInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s max_brightness: %w", name, err)
	}
	if max <= 0 {
		return 0, fmt.Errorf("%s reports max_brightness %d", name, max)
	}
	return Clamp(float64(cur) / float64(max)), nil
}

// Set writes int(value*max), never 0 for a positive value. A denied write
// falls back to logind and then to pkexec tee.
func (s *Sysfs) Set(t Target, value float64) error {
	name, err := s.device(t)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.Root, name)

	max, err := readInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return fmt.Errorf("failed to read %s max_brightness: %w", name, err)
	}
	if max <= 0 {
		return fmt.Errorf("%s reports max_brightness %d", name, max)
	}

	value = Clamp(value)
	raw := int(value * float64(max))
	if value > 0 && raw < 1 {
		raw = 1
	}

	path := filepath.Join(dir, "brightness")
	err = writeValue(path, raw)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if s.Logind != nil {
		lerr := s.Logind.SetBrightness("backlight", name, uint32(raw))
		if lerr == nil {
			return nil
		}
		s.Logger.Debugw("logind SetBrightness failed", "device", name, "err", lerr)
	}

	return s.elevatedWrite(path, raw)
}

func writeValue(path string, raw int) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(strconv.Itoa(raw)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// elevatedWrite pipes the value through `pkexec tee <path>`.
func (s *Sysfs) elevatedWrite(path string, raw int) error {
	if s.Runner == nil {
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	if _, err := s.Runner.LookPath("pkexec"); err != nil {
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	res, err := s.Runner.Run(command.Request{
		Name:  "pkexec",
		Args:  []string{"tee", path},
		Stdin: []byte(strconv.Itoa(raw)),
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%w: pkexec tee exited with %d", ErrPermission, res.ExitCode)
	}
	return nil
}
