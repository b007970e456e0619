package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	v := viper.New()
	require.NoError(t, v.BindPFlags(fs))
	return v
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, OutputTable, cfg.Output)
	assert.Equal(t, 5*time.Second, cfg.Command.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.DDC.Settle)
	assert.Equal(t, 3*time.Second, cfg.Privilege.Wait)
	assert.True(t, cfg.Privilege.AutoElevate)
	assert.True(t, cfg.Backend.GammaFallback)
	assert.Empty(t, cfg.Backend.Disabled)
	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel())
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
command:
  timeout: 2s
ddc:
  settle: 45ms
privilege:
  auto-elevate: false
backend:
  gamma-fallback: false
  disabled: [ddcutil, gamma]
output: json
`), 0o644))

	cfg, err := Load(newViper(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, 2*time.Second, cfg.Command.Timeout)
	assert.Equal(t, 45*time.Millisecond, cfg.DDC.Settle)
	assert.False(t, cfg.Privilege.AutoElevate)
	assert.False(t, cfg.Backend.GammaFallback)
	assert.Equal(t, []string{"ddcutil", "gamma"}, cfg.Backend.Disabled)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel())
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: json\n"), 0o644))

	cfg, err := Load(newViper(t, "--config", path, "-o", "yaml"))
	require.NoError(t, err)
	assert.Equal(t, OutputYAML, cfg.Output)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DISPLAYCTL_DDC_SETTLE", "42ms")
	t.Setenv("DISPLAYCTL_BACKEND_GAMMA_FALLBACK", "false")
	t.Setenv("DISPLAYCTL_PRIVILEGE_AUTO_ELEVATE", "false")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, 42*time.Millisecond, cfg.DDC.Settle)
	assert.False(t, cfg.Backend.GammaFallback)
	assert.False(t, cfg.Privilege.AutoElevate)
}

func TestAutoElevateOptOut(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(newViper(t, "--privilege.auto-elevate=false"))
	require.NoError(t, err)
	assert.False(t, cfg.Privilege.AutoElevate)
}

func TestExplicitMissingFile(t *testing.T) {
	_, err := Load(newViper(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := Load(newViper(t, "-o", "xml"))
	assert.Error(t, err)

	_, err = Load(newViper(t, "--log.level", "loud"))
	assert.Error(t, err)

	_, err = Load(newViper(t, "--command.timeout", "0s"))
	assert.Error(t, err)
}
