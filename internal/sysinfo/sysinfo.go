// Package sysinfo describes the host operating system for diagnostics.
package sysinfo

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Info is a short description of the running system.
type Info struct {
	OS      string `json:"os" yaml:"os"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`       // Distribution or product name
	Version string `json:"version,omitempty" yaml:"version,omitempty"` // Release version
	Build   string `json:"build,omitempty" yaml:"build,omitempty"`
	Kernel  string `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Machine string `json:"machine,omitempty" yaml:"machine,omitempty"`
}

func (i Info) String() string {
	desc := strings.TrimSpace(i.Name + " " + i.Version)
	if desc == "" {
		return fmt.Sprintf("Operating System: %s", i.OS)
	}
	return fmt.Sprintf("Operating System: %s (%s)", i.OS, desc)
}

func newInfo() Info {
	return Info{OS: runtime.GOOS, Machine: runtime.GOARCH}
}

// parseKeyValues reads KEY<sep>VALUE lines, stripping quotes and comments.
func parseKeyValues(r io.Reader, sep string) map[string]string {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, sep, 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		values[key] = value
	}
	return values
}

// ParseOSRelease extracts the distribution name and version from an
// os-release file.
func ParseOSRelease(r io.Reader) (name, version string) {
	values := parseKeyValues(r, "=")
	name = values["NAME"]
	if name == "" {
		name = values["ID"]
	}
	version = values["VERSION"]
	if version == "" {
		version = values["VERSION_ID"]
	}
	return name, version
}

// ParseSWVers extracts product name, version and build from sw_vers output.
func ParseSWVers(r io.Reader) (name, version, build string) {
	values := parseKeyValues(r, ":")
	return values["ProductName"], values["ProductVersion"], values["BuildVersion"]
}
