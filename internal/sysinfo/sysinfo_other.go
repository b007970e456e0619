//go:build !unix && !windows

package sysinfo

import "displayctl/internal/command"

// Describe reports only what the runtime knows.
func Describe(_ command.Runner) Info {
	return newInfo()
}
