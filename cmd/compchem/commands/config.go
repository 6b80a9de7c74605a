package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/compchem/internal/config"
	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/logging"
	"github.com/thoreinstein/compchem/internal/paths"
	"github.com/thoreinstein/compchem/pkg/fileutil"
)

// showFormat holds the value of the config show --format flag.
var showFormat string

// showOutput holds the value of the config show --output flag.
var showOutput string

// initForce holds the value of the config init --force flag.
var initForce bool

func init() {
	configShowCmd.Flags().StringVarP(&showFormat, "format", "f", "yaml",
		"output format: yaml, toml, json")
	configShowCmd.Flags().StringVarP(&showOutput, "output", "o", "",
		"write to a file instead of stdout (yaml or toml)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage compchem configuration",
	Long: `Manage compchem configuration stored in
$XDG_CONFIG_HOME/compchem/config.yaml.

Without a subcommand, shows the effective configuration.`,
	Example: `  # Show the effective configuration
  compchem config

  # Show it as TOML
  compchem config show --format toml

  # Write a default config file
  compchem config init

See Also: compchem logs path`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file, COMPCHEM_
environment variables and command-line flags are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  `Write the default configuration to $XDG_CONFIG_HOME/compchem/config.yaml.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

// effectiveConfig returns the loaded config with the flag overrides applied.
func effectiveConfig() map[string]any {
	cfg := *appConfig
	cfg.Logging.Name = appConfigurator.Name()
	cfg.Logging.Console = appConfigurator.ConsoleLevel()
	cfg.Logging.File = appConfigurator.FileLevel()
	cfg.Logging.LogDir = appConfigurator.LogDir()
	return cfg.Map()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	m := effectiveConfig()

	if showOutput != "" {
		var err error
		switch showFormat {
		case "toml":
			err = fileutil.WriteTOML(showOutput, m, 0o644)
		case "yaml":
			err = fileutil.WriteYAML(showOutput, m, 0o644)
		default:
			return errors.NewUserError(errors.Newf("cannot write format %q to a file", showFormat), "Use --format yaml or --format toml")
		}
		if err != nil {
			return errors.NewSystemError(err, "")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", showOutput)
		return nil
	}

	var (
		data []byte
		err  error
	)
	switch showFormat {
	case "yaml":
		data, err = yaml.Marshal(m)
	case "toml":
		data, err = toml.Marshal(m)
	case "json":
		data, err = json.MarshalIndent(m, "", "  ")
		data = append(data, '\n')
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", showFormat), "Use --format yaml, toml or json")
	}
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := filepath.Join(paths.ConfigDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.NewUserError(errors.Newf("config file already exists at %s", path), "Pass --force to overwrite it")
	}

	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return errors.NewSystemError(errors.Wrap(err, "creating config directory"), "")
	}

	cfg := &config.Config{Version: config.CurrentVersion, Logging: logging.DefaultOptions()}
	if err := fileutil.WriteYAML(path, cfg.Map(), 0o644); err != nil {
		return errors.NewSystemError(errors.Wrap(err, "writing config file"), "")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	if used := viper.ConfigFileUsed(); used != "" && used != path {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s takes precedence\n", used)
	}
	return nil
}
