//go:build linux

package topology

import (
	"go.uber.org/zap"

	"displayctl/internal/command"
)

// System returns the discoverer for this platform.
func System(_ command.Runner, logger *zap.SugaredLogger) Discoverer {
	return NewSysfsDiscoverer(logger)
}
