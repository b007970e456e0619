package command

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidOutputName(t *testing.T) {
	for _, ok := range []string{"DP-1", "HDMI-1", "eDP-1", "DVI-I-1", "Virtual1", "HDMI-A-2"} {
		assert.NoError(t, ValidOutputName(ok), ok)
	}
	for _, bad := range []string{"", "-x", "DP 1", "DP-1;rm", "$(id)", "a/b", "--brightness"} {
		assert.ErrorIs(t, ValidOutputName(bad), ErrInvalidArgument, bad)
	}
}

func TestValidBus(t *testing.T) {
	assert.NoError(t, ValidBus(0))
	assert.NoError(t, ValidBus(17))
	assert.ErrorIs(t, ValidBus(-1), ErrInvalidArgument)
	assert.ErrorIs(t, ValidBus(MaxBus+1), ErrInvalidArgument)
}

func TestValidUser(t *testing.T) {
	assert.NoError(t, ValidUser("alice"))
	assert.NoError(t, ValidUser("_svc"))
	assert.NoError(t, ValidUser("jean-luc.p"))
	for _, bad := range []string{"", "-root", "a b", "x;y", "1abc", "a/b"} {
		assert.ErrorIs(t, ValidUser(bad), ErrInvalidArgument, bad)
	}
}

func TestValidDeviceName(t *testing.T) {
	assert.NoError(t, ValidDeviceName("intel_backlight"))
	assert.NoError(t, ValidDeviceName("amdgpu_bl0"))
	for _, bad := range []string{"", ".", "..", "../x", "a/b", "a b"} {
		assert.ErrorIs(t, ValidDeviceName(bad), ErrInvalidArgument, bad)
	}
}

func TestValidDisplayDevice(t *testing.T) {
	assert.NoError(t, ValidDisplayDevice(`\\.\DISPLAY1`))
	assert.NoError(t, ValidDisplayDevice(`\\.\DISPLAY12`))
	for _, bad := range []string{"", "DISPLAY1", `\\.\DISPLAY`, `\\.\DISPLAY1\Monitor0`, `C:\x`} {
		assert.ErrorIs(t, ValidDisplayDevice(bad), ErrInvalidArgument, bad)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	r := NewExecRunner(time.Second, nil)

	res, err := r.Run(Request{Name: "sh", Args: []string{"-c", "printf hello; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.OK())
	assert.Equal(t, "hello", string(res.Stdout))
}

func TestExecRunnerStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	r := NewExecRunner(time.Second, nil)

	res, err := r.Run(Request{Name: "cat", Stdin: []byte("42")})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "42", string(res.Stdout))
}

func TestExecRunnerTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	r := NewExecRunner(time.Second, nil)

	_, err := r.Run(Request{Name: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecRunnerNotFound(t *testing.T) {
	r := NewExecRunner(0, nil)
	assert.Equal(t, DefaultTimeout, r.Timeout)

	_, err := r.LookPath("displayctl-no-such-program")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Run(Request{Name: "displayctl-no-such-program"})
	assert.ErrorIs(t, err, ErrNotFound)
}
