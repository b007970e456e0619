package brightness

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"displayctl/internal/backend"
	"displayctl/internal/command/commandtest"
	"displayctl/internal/topology"
)

type discoverer struct {
	outs  []topology.Output
	err   error
	calls int
}

func (d *discoverer) Discover() ([]topology.Output, error) {
	d.calls++
	return d.outs, d.err
}

type memory struct {
	name   string
	values map[string]float64
}

func (m *memory) Name() string { return m.name }
func (m *memory) Scoped() bool { return false }

func (m *memory) Get(t backend.Target) (float64, error) {
	v, ok := m.values[t.Output.ID]
	if !ok {
		return 0, backend.ErrUnsupported
	}
	return v, nil
}

func (m *memory) Set(t backend.Target, v float64) error {
	if _, ok := m.values[t.Output.ID]; !ok {
		return backend.ErrUnsupported
	}
	m.values[t.Output.ID] = v
	return nil
}

func TestClamp(t *testing.T) {
	for _, v := range []float64{-1, 0, 0.5, 1, 2, math.NaN()} {
		c := Clamp(v)
		assert.True(t, c >= 0 && c <= 1)
		assert.Equal(t, c, Clamp(c))
	}
}

func TestListDisplays(t *testing.T) {
	d := &discoverer{outs: []topology.Output{
		{ID: "backlight", Name: "Built-in Display (intel_backlight)", BuiltIn: true},
		{ID: "drm:card0-DP-1", Name: "DELL U2412M"},
	}}
	hw := &memory{name: "sysfs", values: map[string]float64{"backlight": 0.3}}
	gamma := &memory{name: "gamma", values: map[string]float64{"drm:card0-DP-1": 0.8}}
	s := NewSession(Options{Discoverer: d, Chain: backend.Chain{Hardware: []backend.Backend{hw}, Gamma: gamma}})

	displays, err := s.ListDisplays()
	require.NoError(t, err)
	assert.Equal(t, []Display{
		{ID: "backlight", Name: "Built-in Display (intel_backlight)", IsBuiltIn: true, Brightness: 0.3, SoftwareBrightness: 1},
		{ID: "drm:card0-DP-1", Name: "DELL U2412M", Brightness: 1, SoftwareBrightness: 0.8},
	}, displays)
}

func TestListDisplaysDiscoveryFailure(t *testing.T) {
	s := NewSession(Options{Discoverer: &discoverer{err: errors.New("no drm")}})
	_, err := s.ListDisplays()
	assert.Error(t, err)

	_, err = NewSession(Options{}).ListDisplays()
	assert.ErrorIs(t, err, topology.ErrUnsupported)
}

func TestNoBusesNoToolsDefaults(t *testing.T) {
	out := topology.Output{ID: "drm:card0-HDMI-A-1", Name: "Display", Connector: "HDMI-1"}
	runner := commandtest.New()
	chain := backend.Chain{Hardware: []backend.Backend{
		backend.NewDDCUtil(runner),
		&backend.Sysfs{Root: t.TempDir(), Runner: runner},
	}}
	s := NewSession(Options{Discoverer: &discoverer{outs: []topology.Output{out}}, Chain: chain})

	displays, err := s.ListDisplays()
	require.NoError(t, err)
	require.Len(t, displays, 1)
	assert.Equal(t, 1.0, displays[0].Brightness)
	assert.Equal(t, 1.0, displays[0].SoftwareBrightness)

	ok, err := s.SetBrightness(out.ID, 0.5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, runner.Calls)
}

func TestSetBrightness(t *testing.T) {
	d := &discoverer{outs: []topology.Output{{ID: "backlight", BuiltIn: true}}}
	hw := &memory{name: "sysfs", values: map[string]float64{"backlight": 0.3}}
	gamma := &memory{name: "gamma", values: map[string]float64{"backlight": 1}}
	s := NewSession(Options{Discoverer: d, Chain: backend.Chain{Hardware: []backend.Backend{hw}, Gamma: gamma}})

	// No prior ListDisplays: the unknown ID triggers one discovery.
	ok, err := s.SetBrightness("backlight", 1.4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.0, hw.values["backlight"])
	assert.Equal(t, 1, d.calls)

	ok, err = s.SetSoftwareBrightness("backlight", math.NaN())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.0, gamma.values["backlight"])
	assert.Equal(t, 1.0, hw.values["backlight"])
	assert.Equal(t, 1, d.calls)

	assert.Equal(t, "sysfs", s.Routes()["backlight"].Backend)
	assert.Equal(t, []string{"sysfs"}, s.Backends())
	assert.Len(t, s.Outputs(), 1)
}

func TestInputErrors(t *testing.T) {
	d := &discoverer{outs: []topology.Output{{ID: "backlight"}}}
	s := NewSession(Options{Discoverer: d})

	_, err := s.SetBrightness("", 0.5)
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.Equal(t, 0, d.calls)

	_, err = s.SetBrightness("drm:nope", 0.5)
	assert.ErrorIs(t, err, ErrUnknownDisplay)
	assert.Equal(t, 1, d.calls)

	_, err = s.SetSoftwareBrightness("drm:nope", 0.5)
	assert.ErrorIs(t, err, ErrUnknownDisplay)

	_, err = s.Display("")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestSoftwareWithoutGamma(t *testing.T) {
	d := &discoverer{outs: []topology.Output{{ID: "win:0"}}}
	s := NewSession(Options{Discoverer: d})

	ok, err := s.SetSoftwareBrightness("win:0", 0.5)
	require.NoError(t, err)
	assert.False(t, ok)

	disp, err := s.Display("win:0")
	require.NoError(t, err)
	assert.Equal(t, 1.0, disp.SoftwareBrightness)
}
