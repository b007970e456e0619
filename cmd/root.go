package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"displayctl/internal/backend"
	"displayctl/internal/brightness"
	"displayctl/internal/command"
	"displayctl/internal/config"
	"displayctl/internal/logging"
	"displayctl/internal/privilege"
	"displayctl/internal/sysinfo"
	"displayctl/internal/topology"
)

var (
	verbose bool

	v         = viper.New()
	cfg       *config.Config
	logger    = zap.NewNop().Sugar()
	runner    command.Runner
	bootstrap *privilege.Bootstrapper
	session   *brightness.Session
)

var rootCmd = &cobra.Command{
	Use:   "displayctl [command]",
	Short: "A cross-platform display brightness tool",
	Long: `displayctl reads and sets the brightness of built-in panels and external
monitors on Linux, macOS and Windows. External monitors are driven over DDC/CI,
panels through the OS backlight interfaces, and software gamma dimming is used
when no hardware path works.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// noinspection GoUnhandledErrorResult
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	config.Flags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

// initApp loads the configuration and wires the brightness session.
func initApp(cmd *cobra.Command, args []string) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	level := cfg.LogLevel()
	if verbose {
		level = zapcore.DebugLevel
	}
	logger = logging.CreateLogger(cfg.Log.Path, level)
	runner = command.NewExecRunner(cfg.Command.Timeout, logger.Named("command"))
	if level == zapcore.DebugLevel {
		logger.Debugw("application started",
			"config_file", v.ConfigFileUsed(),
			"system", sysinfo.Describe(runner).String())
	}

	bootstrap = privilege.NewBootstrapper(privilege.Options{
		Devices:     privilege.SystemDevices(runner, logger.Named("privilege")),
		Elevator:    privilege.SystemElevator(runner),
		User:        currentUser(),
		AutoElevate: cfg.Privilege.AutoElevate,
		Wait:        cfg.Privilege.Wait,
		Logger:      logger.Named("privilege"),
	})

	chain := backend.Platform(backend.Deps{
		Runner:        runner,
		Gate:          bootstrap,
		Logger:        logger.Named("backend"),
		Settle:        cfg.DDC.Settle,
		GammaFallback: cfg.Backend.GammaFallback,
		Disabled:      cfg.Backend.Disabled,
	})

	session = brightness.NewSession(brightness.Options{
		Discoverer: topology.System(runner, logger.Named("topology")),
		Chain:      chain,
		Logger:     logger.Named("resolver"),
	})
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
