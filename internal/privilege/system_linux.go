//go:build linux

package privilege

import (
	"go.uber.org/zap"

	"displayctl/internal/command"
)

// SystemDevices returns the /dev node prober.
func SystemDevices(runner command.Runner, logger *zap.SugaredLogger) Devices {
	return &NodeDevices{Dir: "/dev", Runner: runner, Logger: logger}
}

// SystemElevator returns the polkit elevator.
func SystemElevator(runner command.Runner) Elevator {
	return &PkexecElevator{Runner: runner}
}
