package command

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidArgument is returned when a value may not be placed in an argv.
var ErrInvalidArgument = errors.New("command: invalid argument")

var (
	outputNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
	userPattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]{0,31}$`)
	devicePattern     = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._:-]{0,63}$`)
	displayPattern    = regexp.MustCompile(`^\\\\\.\\DISPLAY[0-9]{1,3}$`)
)

// MaxBus is the highest I2C adapter number accepted.
const MaxBus = 1023

// ValidOutputName checks a connector or compositor output name such as "DP-1".
func ValidOutputName(name string) error {
	if !outputNamePattern.MatchString(name) {
		return fmt.Errorf("%w: output name %q", ErrInvalidArgument, name)
	}
	return nil
}

// ValidBus checks an I2C bus or display number.
func ValidBus(n int) error {
	if n < 0 || n > MaxBus {
		return fmt.Errorf("%w: bus %d", ErrInvalidArgument, n)
	}
	return nil
}

// ValidUser checks a login name.
func ValidUser(name string) error {
	if !userPattern.MatchString(name) {
		return fmt.Errorf("%w: user %q", ErrInvalidArgument, name)
	}
	return nil
}

// ValidDeviceName checks a sysfs device directory name. Path separators and
// dot entries are never accepted.
func ValidDeviceName(name string) error {
	if name == "." || name == ".." || !devicePattern.MatchString(name) {
		return fmt.Errorf("%w: device %q", ErrInvalidArgument, name)
	}
	return nil
}

// ValidDisplayDevice checks a Windows GDI device name such as \\.\DISPLAY1.
func ValidDisplayDevice(name string) error {
	if !displayPattern.MatchString(name) {
		return fmt.Errorf("%w: display device %q", ErrInvalidArgument, name)
	}
	return nil
}
