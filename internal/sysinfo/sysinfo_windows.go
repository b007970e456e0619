package sysinfo

import (
	"golang.org/x/sys/windows/registry"

	"displayctl/internal/command"
)

// Describe reads the product name and build from the registry.
func Describe(_ command.Runner) Info {
	info := newInfo()

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return info
	}
	defer key.Close()

	if name, _, err := key.GetStringValue("ProductName"); err == nil {
		info.Name = name
	}
	if version, _, err := key.GetStringValue("DisplayVersion"); err == nil {
		info.Version = version
	} else if version, _, err := key.GetStringValue("CurrentVersion"); err == nil {
		info.Version = version
	}
	if build, _, err := key.GetStringValue("CurrentBuild"); err == nil {
		info.Build = build
		info.Kernel = "NT build " + build
	}
	return info
}
