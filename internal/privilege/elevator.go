package privilege

import (
	"errors"
	"fmt"
	"time"

	"displayctl/internal/command"
)

// Outcome is the result of one elevation request.
type Outcome int

const (
	OutcomeGranted Outcome = iota
	OutcomeRefused
	OutcomeFailed
)

// Elevator performs the privileged system change that grants user durable
// access to I2C device nodes.
type Elevator interface {
	Grant(user string) (Outcome, error)
}

// RuleFile is the udev rule installed by the setup script.
const RuleFile = "/etc/udev/rules.d/45-displayctl-i2c.rules"

// setupScript is run as root with the user name as $1. It is idempotent.
const setupScript = `set -e
getent group i2c >/dev/null || groupadd --system i2c
usermod -aG i2c "$1"
printf '%s\n' 'KERNEL=="i2c-[0-9]*", GROUP="i2c", MODE="0660"' > ` + RuleFile + `
printf 'i2c-dev\n' > /etc/modules-load.d/displayctl-i2c.conf
modprobe i2c-dev || true
udevadm control --reload-rules
udevadm trigger --subsystem-match=i2c-dev
`

// pkexec reports a dismissed dialog as 126 and an authorization failure as 127.
const (
	pkexecDismissed    = 126
	pkexecUnauthorized = 127
)

// PkexecElevator runs the setup script through polkit.
type PkexecElevator struct {
	Runner  command.Runner
	Timeout time.Duration
}

// Grant asks polkit to run the setup script for user.
func (e *PkexecElevator) Grant(user string) (Outcome, error) {
	if err := command.ValidUser(user); err != nil {
		return OutcomeFailed, err
	}
	if _, err := e.Runner.LookPath("pkexec"); err != nil {
		return OutcomeFailed, err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	res, err := e.Runner.Run(command.Request{
		Name:    "pkexec",
		Args:    []string{"/bin/sh", "-c", setupScript, "displayctl-setup", user},
		Timeout: timeout,
	})
	if err != nil {
		if errors.Is(err, command.ErrTimeout) {
			return OutcomeRefused, err
		}
		return OutcomeFailed, err
	}

	switch res.ExitCode {
	case 0:
		return OutcomeGranted, nil
	case pkexecDismissed, pkexecUnauthorized:
		return OutcomeRefused, fmt.Errorf("pkexec exited with %d", res.ExitCode)
	default:
		return OutcomeFailed, fmt.Errorf("setup script exited with %d", res.ExitCode)
	}
}
