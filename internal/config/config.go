package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const AppName = "displayctl"

// Output formats accepted by the output key.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// LogConfig defines where and how much to log
type LogConfig struct {
	Path  string `mapstructure:"path"`  // Rotated log file, empty for stderr only
	Level string `mapstructure:"level"` // debug, info, warn or error
}

// CommandConfig bounds external tool invocations
type CommandConfig struct {
	Timeout time.Duration `mapstructure:"timeout"` // Per-process deadline
}

// DDCConfig tunes raw DDC/CI exchanges
type DDCConfig struct {
	Settle time.Duration `mapstructure:"settle"` // Delay between request and reply read, kept in 40-50ms
}

// PrivilegeConfig controls the bus permission bootstrap
type PrivilegeConfig struct {
	AutoElevate bool          `mapstructure:"auto-elevate"` // Prompt through pkexec when buses are inaccessible
	Wait        time.Duration `mapstructure:"wait"`         // How long to wait for /dev/i2c-* after modprobe
}

// BackendConfig selects the control mechanisms
type BackendConfig struct {
	GammaFallback bool     `mapstructure:"gamma-fallback"` // Let SetBrightness fall back to gamma dimming
	Disabled      []string `mapstructure:"disabled"`       // Backend names never tried
}

// Config aggregates all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Command   CommandConfig   `mapstructure:"command"`
	DDC       DDCConfig       `mapstructure:"ddc"`
	Privilege PrivilegeConfig `mapstructure:"privilege"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Output    string          `mapstructure:"output"` // table, json or yaml
}

// Flags registers the persistent command line flags.
func Flags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Configuration file path (default "+DefaultConfigFile()+")")
	flags.String("log.path", "", "Log file path")
	flags.String("log.level", "warn", "Log level (debug, info, warn, error)")
	flags.StringP("output", "o", OutputTable, "Output format (table, json, yaml)")
	flags.Duration("command.timeout", 5*time.Second, "Timeout for external tools")
	flags.Bool("privilege.auto-elevate", true, "Ask for elevation when i2c buses are not accessible (false to never prompt)")
}

// Load reads flags already bound to v, DISPLAYCTL_* environment variables and
// the optional config file. A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("log.level", "warn")
	v.SetDefault("output", OutputTable)
	v.SetDefault("command.timeout", 5*time.Second)
	v.SetDefault("ddc.settle", 50*time.Millisecond)
	v.SetDefault("privilege.auto-elevate", true)
	v.SetDefault("privilege.wait", 3*time.Second)
	v.SetDefault("backend.gamma-fallback", true)
	v.SetDefault("backend.disabled", []string{})

	file := v.GetString("config")
	explicit := file != ""
	if !explicit {
		file = DefaultConfigFile()
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
			if !missing || explicit {
				return nil, fmt.Errorf("failed to read %s: %w", file, err)
			}
		}
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format %q", c.Output)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Command.Timeout <= 0 {
		return fmt.Errorf("command.timeout must be positive, got %s", c.Command.Timeout)
	}
	if c.Privilege.Wait < 0 {
		return fmt.Errorf("privilege.wait must not be negative, got %s", c.Privilege.Wait)
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.WarnLevel
	}
	return level
}

// DefaultConfigFile returns $XDG_CONFIG_HOME/displayctl/config.yaml.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.yaml")
}
