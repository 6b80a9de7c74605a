// Package commands implements the CLI commands for compchem.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/compchem/cmd"
	"github.com/thoreinstein/compchem/internal/config"
	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/logging"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// configFile holds the value of the --config flag.
var configFile string

// Logger overrides. Empty strings leave the config value in place.
var (
	logDirFlag       string
	logNameFlag      string
	consoleLevelFlag string
	fileLevelFlag    string
)

// registry holds the loggers configured by the CLI.
var registry = logging.DefaultRegistry()

// Per-invocation state set up by setupLogging.
var (
	appConfig       *config.Config
	appConfigurator *logging.Configurator
)

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase diagnostic verbosity (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error diagnostics")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml or $XDG_CONFIG_HOME/compchem/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logDirFlag, "log-dir", "",
		"directory for the log file")
	rootCmd.PersistentFlags().StringVar(&logNameFlag, "log-name", "",
		"logger name, placed under compchem")
	rootCmd.PersistentFlags().StringVar(&consoleLevelFlag, "console-level", "",
		"console threshold: trace, debug, info, warning, error, off")
	rootCmd.PersistentFlags().StringVar(&fileLevelFlag, "file-level", "",
		"log file threshold: trace, debug, info, warning, error, off")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("compchem version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

var rootCmd = &cobra.Command{
	Use:   "compchem",
	Short: "Computational chemistry toolkit",
	Long: `compchem is a computational chemistry toolkit.

Every command logs through the compchem logger hierarchy. By default
records at WARNING and above go to compchem.log in the platform log
directory and nothing is written to the console. Use the logging flags
or the logging section of the config file to change that.`,
	Example: `  # Log INFO and above to the console
  compchem --console-level info

  # Show where the log file is written
  compchem logs path

  See Also: compchem logs, compchem config`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupLogging(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, _ := logging.FromContext(cmd.Context())
		logger.Debug("Running compchem")
		fmt.Fprintln(cmd.OutOrStdout(), "Running compchem")
		return nil
	},
}

// setupLogging configures the diagnostics logger from the verbosity flags,
// loads the config, applies flag overrides and binds the application logger
// into the command context.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("COMPCHEM_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	diag := slog.New(logging.NewHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(diag)

	config.Init()
	cfg, err := config.Load(configFile)
	if err != nil {
		return errors.NewConfigError(err)
	}
	if err := applyFlagOverrides(&cfg.Logging); err != nil {
		return errors.NewUserError(err, "Run 'compchem --help' to see valid levels")
	}

	c, err := logging.NewConfigurator(cfg.Logging,
		logging.WithRegistry(registry),
		logging.WithDiagnostics(diag),
		logging.WithConsoleOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return errors.NewConfigError(err)
	}
	logger, err := c.Logger()
	if err != nil {
		return errors.NewSystemError(err, "Check that the log directory is writable or pass --log-dir")
	}

	appConfig = cfg
	appConfigurator = c

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))
	return nil
}

// applyFlagOverrides copies the non-empty logging flags onto opts.
func applyFlagOverrides(opts *logging.Options) error {
	if logDirFlag != "" {
		opts.LogDir = logDirFlag
	}
	if logNameFlag != "" {
		opts.Name = logNameFlag
	}
	if consoleLevelFlag != "" {
		level, err := logging.ParseLevel(consoleLevelFlag)
		if err != nil {
			return errors.Wrap(err, "--console-level")
		}
		opts.Console = level
	}
	if fileLevelFlag != "" {
		level, err := logging.ParseLevel(fileLevelFlag)
		if err != nil {
			return errors.Wrap(err, "--file-level")
		}
		opts.File = level
	}
	return nil
}

// Execute runs the root command and closes every configured sink.
func Execute() error {
	defer registry.CloseAll()
	return errors.Wrap(rootCmd.Execute(), "executing root command")
}
