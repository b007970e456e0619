//go:build !linux

package privilege

import (
	"go.uber.org/zap"

	"displayctl/internal/command"
)

// SystemDevices returns nil; raw I2C nodes only exist on Linux.
func SystemDevices(command.Runner, *zap.SugaredLogger) Devices { return nil }

// SystemElevator returns nil.
func SystemElevator(command.Runner) Elevator { return nil }
