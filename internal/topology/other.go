//go:build !linux && !darwin && !windows

package topology

import (
	"go.uber.org/zap"

	"displayctl/internal/command"
)

type unsupported struct{}

func (unsupported) Discover() ([]Output, error) { return nil, ErrUnsupported }

// System returns a discoverer that always fails with ErrUnsupported.
func System(command.Runner, *zap.SugaredLogger) Discoverer { return unsupported{} }
