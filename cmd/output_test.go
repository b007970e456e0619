package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"displayctl/internal/brightness"
	"displayctl/internal/config"
	"displayctl/internal/resolver"
	"displayctl/internal/topology"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]float64{
		"0.5":  0.5,
		"1":    1,
		"40%":  0.4,
		" 75%": 0.75,
		"150%": 1.5,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	for _, bad := range []string{"", "bright", "%", "50%%", "0x", "nan", "NaN%", "inf", "-Inf", "+Inf%"} {
		_, err := parseLevel(bad)
		assert.Error(t, err, bad)
	}

	_, err := parseLevel("abc%")
	assert.EqualError(t, err, `invalid brightness "abc%": want a fraction like 0.5 or a percentage like 50%`)
}

var sample = []brightness.Display{
	{ID: "backlight", Name: "Built-in Display (intel_backlight)", IsBuiltIn: true, Brightness: 0.5, SoftwareBrightness: 1},
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.OutputTable, sample, func(w io.Writer) {
		printDisplays(w, sample)
	}))
	assert.Equal(t, "ID\tNAME\tBUILT-IN\tBRIGHTNESS\tSOFTWARE\n"+
		"backlight\tBuilt-in Display (intel_backlight)\ttrue\t50%\t100%\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.OutputJSON, sample, nil))
	assert.JSONEq(t, `[{"id":"backlight","name":"Built-in Display (intel_backlight)","isBuiltIn":true,"brightness":0.5,"softwareBrightness":1}]`, buf.String())
}

func TestRenderYAMLReport(t *testing.T) {
	report := detectReport{
		Backends:   []string{"ddcci", "sysfs"},
		Permission: "accessible",
		Outputs: []topology.Output{{
			ID:    "drm:card1-DP-1",
			Name:  "DELL U2412M",
			Buses: []topology.BusCandidate{{Bus: 5, Origin: topology.Primary}},
		}},
		Routes: map[string]resolver.Route{"drm:card1-DP-1": {Backend: "ddcci", Bus: 5}},
	}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.OutputYAML, report, nil))
	out := buf.String()
	assert.Contains(t, out, "origin: primary")
	assert.Contains(t, out, "backend: ddcci")
	assert.Contains(t, out, "permission: accessible")
}

func TestPrintReportTable(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, detectReport{
		Backends:   []string{"sysfs"},
		Permission: "not-attempted",
		Outputs:    []topology.Output{{ID: "backlight", Name: "Panel", Connector: "eDP-1"}},
		Routes:     map[string]resolver.Route{"backlight": {Backend: "sysfs", Bus: resolver.NoBus}},
	})
	assert.Contains(t, buf.String(), "backlight\tPanel\teDP-1\t-\tsysfs\n")
	assert.Contains(t, buf.String(), "Backends: sysfs\n")
}
