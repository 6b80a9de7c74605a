// Package config provides configuration management for compchem using Viper.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/logging"
	"github.com/thoreinstein/compchem/internal/paths"
)

// EnvPrefix is the prefix of environment variables overriding config keys.
// Nested keys use underscores: COMPCHEM_LOGGING_CONSOLE sets logging.console.
const EnvPrefix = "COMPCHEM"

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 1

// Config represents the top-level configuration structure.
type Config struct {
	Version int
	// Logging holds the options for the application logger. The file's
	// logging section is decoded with logging.ParseOptions and the rotation
	// section into Logging.Rotation.
	Logging logging.Options
}

// Map renders cfg in the shape of the config file.
func (cfg *Config) Map() map[string]any {
	rot := cfg.Logging.Rotation
	return map[string]any{
		"version": cfg.Version,
		"logging": cfg.Logging.Map(),
		"rotation": map[string]any{
			"max_size_mb":  rot.MaxSizeMB,
			"max_backups":  rot.MaxBackups,
			"max_age_days": rot.MaxAgeDays,
			"compress":     rot.Compress,
		},
	}
}

// Init resets Viper and installs the default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := logging.DefaultOptions()
	viper.SetDefault("version", CurrentVersion)
	for k, v := range defaults.Map() {
		viper.SetDefault("logging."+k, v)
	}
	viper.SetDefault("rotation.max_size_mb", 0)
	viper.SetDefault("rotation.max_backups", 0)
	viper.SetDefault("rotation.max_age_days", 0)
	viper.SetDefault("rotation.compress", false)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
//
// Unknown keys in the logging section fail with errors.ErrUnknownOption, and
// a config that does not pass Validate fails with errors.ErrInvalidConfig.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit load: defaults apply.
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	opts, err := logging.ParseOptions(loggingSettings())
	if err != nil {
		return nil, errors.Wrap(err, "logging section")
	}
	if err := viper.UnmarshalKey("rotation", &opts.Rotation); err != nil {
		return nil, errors.Wrap(err, "rotation section")
	}

	cfg := &Config{
		Version: viper.GetInt("version"),
		Logging: opts,
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errs: errs}
	}
	return cfg, nil
}

// loggingSettings collects every known logging key from defaults, the file
// and the environment, plus keys only present in the file so ParseOptions
// can reject them. Environment values arrive as strings, so the boolean key
// is read through viper's conversion.
func loggingSettings() map[string]any {
	kv := make(map[string]any, len(logging.KnownKeys))
	for _, k := range logging.KnownKeys {
		key := "logging." + k
		if !viper.IsSet(key) {
			continue
		}
		if k == logging.KeyPropagate {
			kv[k] = viper.GetBool(key)
			continue
		}
		kv[k] = viper.Get(key)
	}
	for k := range viper.GetStringMap("logging") {
		if _, ok := kv[k]; !ok {
			kv[k] = viper.Get("logging." + k)
		}
	}
	return kv
}
