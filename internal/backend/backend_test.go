package backend

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"displayctl/internal/command"
	"displayctl/internal/command/commandtest"
	"displayctl/internal/ddc"
	"displayctl/internal/privilege"
	"displayctl/internal/topology"
)

func TestClamp(t *testing.T) {
	for _, v := range []float64{-3, -0.1, 0, 0.25, 1, 1.5, math.Inf(1), math.Inf(-1), math.NaN()} {
		c := Clamp(v)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		assert.Equal(t, c, Clamp(c))
	}
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 0.25, Clamp(0.25))
}

func TestRamp(t *testing.T) {
	ramp := Ramp(256, 1)
	require.Len(t, ramp, 256)
	assert.Equal(t, uint16(0), ramp[0])
	assert.Equal(t, uint16(65535), ramp[255])
	assert.Equal(t, 1.0, RampFactor(ramp))

	half := Ramp(256, 0.5)
	assert.InDelta(t, 0.5, RampFactor(half), 0.0001)
	for i := 1; i < len(half); i++ {
		assert.GreaterOrEqual(t, half[i], half[i-1])
	}

	assert.Nil(t, Ramp(0, 1))
	assert.Equal(t, []uint16{0, 0}, Ramp(2, -1))
	assert.Equal(t, 1.0, RampFactor(nil))
}

type stub struct {
	name string
}

func (s stub) Name() string                { return s.name }
func (s stub) Scoped() bool                { return false }
func (s stub) Get(Target) (float64, error) { return 0, ErrUnsupported }
func (s stub) Set(Target, float64) error   { return ErrUnsupported }

func names(bs []Backend) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name())
	}
	return out
}

func TestAssemble(t *testing.T) {
	hardware := []Backend{stub{NameDDCCI}, stub{NameDDCUtil}, stub{NameSysfs}}

	chain := Deps{GammaFallback: true}.assemble(hardware, stub{NameGamma})
	assert.Equal(t, []string{NameDDCCI, NameDDCUtil, NameSysfs, NameGamma}, names(chain.Hardware))
	require.NotNil(t, chain.Gamma)

	chain = Deps{GammaFallback: false, Disabled: []string{NameDDCUtil}}.assemble(hardware, stub{NameGamma})
	assert.Equal(t, []string{NameDDCCI, NameSysfs}, names(chain.Hardware))
	assert.NotNil(t, chain.Gamma)

	chain = Deps{GammaFallback: true, Disabled: []string{NameGamma}}.assemble(hardware, stub{NameGamma})
	assert.Equal(t, []string{NameDDCCI, NameDDCUtil, NameSysfs}, names(chain.Hardware))
	assert.Nil(t, chain.Gamma)
}

type fakePort struct {
	reply   []byte
	written bytes.Buffer
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Read(b []byte) (int, error)  { return copy(b, p.reply), nil }
func (p *fakePort) Close() error                { return nil }

type gate privilege.Result

func (g gate) Ensure() privilege.Result { return privilege.Result(g) }

func TestDDCCIGetCachesMax(t *testing.T) {
	port := &fakePort{reply: []byte{0x02, 0x00, 0x10, 0x00, 0x00, 0xC8, 0x00, 0x32, 0x00}}
	d := NewDDCCI(gate(privilege.AlreadyAccessible), 0, nil)
	d.Open = func(bus int) (io.ReadWriteCloser, error) {
		assert.Equal(t, 5, bus)
		return port, nil
	}

	v, err := d.Get(Target{Bus: 5})
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)
	assert.Equal(t, ddc.EncodeGetVCP(ddc.VCPBrightness), port.written.Bytes())

	port.written.Reset()
	require.NoError(t, d.Set(Target{Bus: 5}, 0.5))
	assert.Equal(t, ddc.EncodeSetVCP(ddc.VCPBrightness, 100), port.written.Bytes())
}

func TestDDCCISetDefaultsToHundred(t *testing.T) {
	port := &fakePort{}
	d := NewDDCCI(nil, 0, nil)
	d.Open = func(int) (io.ReadWriteCloser, error) { return port, nil }

	require.NoError(t, d.Set(Target{Bus: 1}, 0.42))
	assert.Equal(t, ddc.EncodeSetVCP(ddc.VCPBrightness, 42), port.written.Bytes())
}

func TestDDCCIGateBlocks(t *testing.T) {
	d := NewDDCCI(gate(privilege.Refused), 0, nil)
	d.Open = func(int) (io.ReadWriteCloser, error) {
		t.Fatal("bus opened without access")
		return nil, nil
	}
	_, err := d.Get(Target{Bus: 1})
	assert.ErrorIs(t, err, ErrPermission)
}

func TestDDCCIOpenErrors(t *testing.T) {
	d := NewDDCCI(nil, 0, nil)

	d.Open = func(int) (io.ReadWriteCloser, error) { return nil, os.ErrPermission }
	_, err := d.Get(Target{Bus: 1})
	assert.ErrorIs(t, err, ErrPermission)

	d.Open = func(int) (io.ReadWriteCloser, error) { return nil, errors.New("no such device") }
	_, err = d.Get(Target{Bus: 1})
	assert.ErrorIs(t, err, ddc.ErrTransport)
}

func TestParseBriefVCP(t *testing.T) {
	cur, max, err := ParseBriefVCP([]byte("VCP 10 C 50 100\n"))
	require.NoError(t, err)
	assert.Equal(t, uint16(50), cur)
	assert.Equal(t, uint16(100), max)

	_, _, err = ParseBriefVCP([]byte("VCP 10 C 50 0\n"))
	assert.ErrorIs(t, err, ddc.ErrZeroMax)

	_, _, err = ParseBriefVCP([]byte("VCP 10 ERR\n"))
	assert.ErrorIs(t, err, ddc.ErrProtocol)

	_, _, err = ParseBriefVCP([]byte("Display not found\n"))
	assert.ErrorIs(t, err, ddc.ErrNoReply)
}

func TestDDCUtil(t *testing.T) {
	runner := commandtest.New().
		On("ddcutil getvcp 10 --bus 4 --brief", commandtest.Response{Stdout: "VCP 10 C 30 60\n"}).
		On("ddcutil setvcp 10 45 --bus 4 --noverify", commandtest.Response{})
	d := NewDDCUtil(runner)

	v, err := d.Get(Target{Bus: 4})
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	require.NoError(t, d.Set(Target{Bus: 4}, 0.75))
	assert.Equal(t, []string{
		"ddcutil getvcp 10 --bus 4 --brief",
		"ddcutil setvcp 10 45 --bus 4 --noverify",
	}, runner.Argv())
}

func TestDDCUtilMissing(t *testing.T) {
	d := NewDDCUtil(commandtest.New())
	_, err := d.Get(Target{Bus: 4})
	assert.ErrorIs(t, err, ErrUnsupported)

	err = d.Set(Target{Bus: -1}, 1)
	assert.ErrorIs(t, err, command.ErrInvalidArgument)
}

func TestDDCUtilNonZeroExit(t *testing.T) {
	runner := commandtest.New().On("ddcutil getvcp 10 --bus 2 --brief", commandtest.Response{ExitCode: 1})
	_, err := NewDDCUtil(runner).Get(Target{Bus: 2})
	assert.Error(t, err)
}

func writeBacklight(t *testing.T, root, name, cur, max string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte(cur), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte(max), 0o644))
}

func TestSysfsGetSet(t *testing.T) {
	root := t.TempDir()
	writeBacklight(t, root, "intel_backlight", "480\n", "960\n")
	s := &Sysfs{Root: root}
	target := Target{Output: topology.Output{ID: "backlight", Backlight: "intel_backlight"}}

	v, err := s.Get(target)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	require.NoError(t, s.Set(target, 0.25))
	b, err := os.ReadFile(filepath.Join(root, "intel_backlight", "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "240", string(b))

	// A tiny positive value never turns the panel off.
	require.NoError(t, s.Set(target, 0.0001))
	b, err = os.ReadFile(filepath.Join(root, "intel_backlight", "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(b))
}

func TestSysfsErrors(t *testing.T) {
	root := t.TempDir()
	writeBacklight(t, root, "acpi_video0", "5", "0")
	s := &Sysfs{Root: root}

	_, err := s.Get(Target{Output: topology.Output{Backlight: "acpi_video0"}})
	assert.Error(t, err)

	_, err = s.Get(Target{Output: topology.Output{}})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Get(Target{Output: topology.Output{Backlight: ".."}})
	assert.ErrorIs(t, err, command.ErrInvalidArgument)

	_, err = s.Get(Target{Output: topology.Output{Backlight: "missing"}})
	assert.Error(t, err)
}

func TestSysfsElevatedWrite(t *testing.T) {
	runner := commandtest.New().On("pkexec tee /sys/class/backlight/x/brightness", commandtest.Response{})
	s := &Sysfs{Runner: runner}

	require.NoError(t, s.elevatedWrite("/sys/class/backlight/x/brightness", 300))
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []byte("300"), runner.Calls[0].Stdin)

	s = &Sysfs{Runner: commandtest.New()}
	assert.ErrorIs(t, s.elevatedWrite("/sys/class/backlight/x/brightness", 1), ErrPermission)
}

type fakeApplier struct {
	name    string
	factor  float64
	err     error
	applied []float64
}

func (a *fakeApplier) Name() string { return a.name }

func (a *fakeApplier) Apply(_ topology.Output, f float64) error {
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, f)
	return nil
}

func (a *fakeApplier) Factor(topology.Output) (float64, error) { return a.factor, a.err }

func TestGammaFallsThroughAppliers(t *testing.T) {
	broken := &fakeApplier{name: "broken", err: errors.New("no crtc")}
	working := &fakeApplier{name: "working", factor: 0.6}
	g := NewGamma(nil, broken, working)

	require.NoError(t, g.Set(Target{}, 1.7))
	assert.Equal(t, []float64{1}, working.applied)

	v, err := g.Get(Target{})
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)
}

func TestGammaNoAppliers(t *testing.T) {
	g := NewGamma(nil)
	assert.ErrorIs(t, g.Set(Target{}, 0.5), ErrUnsupported)
	_, err := g.Get(Target{})
	assert.ErrorIs(t, err, ErrUnsupported)

	g = NewGamma(nil, &fakeApplier{name: "broken", err: ErrUnsupported})
	assert.ErrorIs(t, g.Set(Target{}, 0.5), ErrUnsupported)
}

const xrandrVerbose = `Screen 0: minimum 8 x 8, current 3840 x 1080, maximum 32767 x 32767
eDP-1 connected primary 1920x1080+0+0 (0x45) normal (normal left inverted right x axis y axis) 309mm x 174mm
	Identifier: 0x42
	Gamma:      1.0:1.0:1.0
	Brightness: 1.0
HDMI-1 connected 1920x1080+1920+0 (0x46) normal (normal left inverted right x axis y axis) 527mm x 296mm
	Identifier: 0x43
	Gamma:      1.0:1.0:1.0
	Brightness: 0.60
  1920x1080 (0x46) 148.500MHz +HSync +VSync *current +preferred
DP-1 disconnected (normal left inverted right x axis y axis)
`

func TestParseXRandRBrightness(t *testing.T) {
	v, err := ParseXRandRBrightness([]byte(xrandrVerbose), "HDMI-1")
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)

	v, err = ParseXRandRBrightness([]byte(xrandrVerbose), "eDP-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = ParseXRandRBrightness([]byte(xrandrVerbose), "DP-1")
	assert.Error(t, err)
}

func TestXRandRApply(t *testing.T) {
	runner := commandtest.New().On("xrandr --output HDMI-1 --brightness 0.3000", commandtest.Response{})
	x := &XRandR{Runner: runner}

	require.NoError(t, x.Apply(topology.Output{Connector: "HDMI-1"}, 0.3))
	assert.ErrorIs(t, x.Apply(topology.Output{Connector: "HDMI-1; rm"}, 0.3), command.ErrInvalidArgument)
	assert.ErrorIs(t, x.Apply(topology.Output{}, 0.3), ErrUnsupported)
}

func TestMacCLI(t *testing.T) {
	runner := commandtest.New().
		On("m1ddc display 2 get luminance", commandtest.Response{Stdout: "64\n"}).
		On("m1ddc display 2 set luminance 30", commandtest.Response{}).
		On("ddcctl -d 1 -b ?", commandtest.Response{Stdout: "I: VCP control #16 (0x10) = current: 40, max: 80\n"}).
		On("ddcctl -d 1 -b 90", commandtest.Response{})

	m1 := NewM1DDC(runner)
	v, err := m1.Get(Target{Bus: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.64, v)
	require.NoError(t, m1.Set(Target{Bus: 2}, 0.3))

	ctl := NewDDCCtl(runner)
	v, err = ctl.Get(Target{Bus: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	require.NoError(t, ctl.Set(Target{Bus: 1}, 0.9))
}

func TestMacCLIUnparsable(t *testing.T) {
	runner := commandtest.New().On("m1ddc display 1 get luminance", commandtest.Response{Stdout: "error: no display"})
	_, err := NewM1DDC(runner).Get(Target{Bus: 1})
	assert.Error(t, err)

	_, err = NewDDCCtl(commandtest.New()).Get(Target{Bus: 1})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestControlMyMonitor(t *testing.T) {
	runner := commandtest.New().
		On(`ControlMyMonitor.exe /GetValue \\.\DISPLAY2\Monitor0 10`, commandtest.Response{ExitCode: 70}).
		On(`ControlMyMonitor.exe /SetValue \\.\DISPLAY2\Monitor0 10 25`, commandtest.Response{})
	c := &ControlMyMonitor{Runner: runner}
	target := Target{Output: topology.Output{Device: `\\.\DISPLAY2`}, Bus: 0}

	v, err := c.Get(target)
	require.NoError(t, err)
	assert.Equal(t, 0.7, v)
	require.NoError(t, c.Set(target, 0.25))

	_, err = c.Get(Target{Output: topology.Output{Device: `C:\evil`}})
	assert.ErrorIs(t, err, command.ErrInvalidArgument)
}

func TestWMI(t *testing.T) {
	script := "(Get-WmiObject -Namespace root/WMI -Class WmiMonitorBrightnessMethods).WmiSetBrightness(1,40)"
	runner := commandtest.New().On("powershell -NoProfile -NonInteractive -Command "+script, commandtest.Response{})
	w := &WMI{Runner: runner, Query: func() (uint8, error) { return 80, nil }}
	panel := Target{Output: topology.Output{BuiltIn: true}}

	v, err := w.Get(panel)
	require.NoError(t, err)
	assert.Equal(t, 0.8, v)
	require.NoError(t, w.Set(panel, 0.4))

	_, err = w.Get(Target{})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, w.Set(Target{}, 0.4), ErrUnsupported)
}
