//go:build unix

package sysinfo

import (
	"bytes"
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"displayctl/internal/command"
)

func clen(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return len(b)
}

// Describe reports the kernel from uname and the distribution from
// /etc/os-release, or the product from sw_vers on macOS.
func Describe(runner command.Runner) Info {
	info := newInfo()

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		info.Kernel = string(uts.Sysname[:clen(uts.Sysname[:])]) + " " + string(uts.Release[:clen(uts.Release[:])])
		info.Machine = string(uts.Machine[:clen(uts.Machine[:])])
	}

	if runtime.GOOS == "darwin" {
		res, err := runner.Run(command.Request{Name: "sw_vers"})
		if err == nil && res.OK() {
			info.Name, info.Version, info.Build = ParseSWVers(bytes.NewReader(res.Stdout))
		}
		return info
	}

	for _, path := range []string{"/etc/os-release", "/usr/lib/os-release"} {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		info.Name, info.Version = ParseOSRelease(f)
		f.Close()
		if info.Name != "" {
			break
		}
	}
	return info
}
