// Package config provides configuration management for the compchem CLI.
//
// # Configuration File
//
// The configuration file is config.yaml, searched in the working directory
// and then in $XDG_CONFIG_HOME/compchem. It has the following structure:
//
//	version: 1
//	logging:
//	  name: compchem
//	  console: off      # level name, integer, or off
//	  file: warning
//	  logdir: ~/logs
//	  fname: compchem.log
//	  propagate: true
//	  format: text      # or json
//	rotation:           # optional; disabled while max_size_mb is 0
//	  max_size_mb: 10
//	  max_backups: 3
//	  max_age_days: 28
//	  compress: false
//
// The logging section accepts exactly the keys of [logging.ParseOptions];
// any other key fails the load.
//
// # Environment
//
// Every key can be overridden with a COMPCHEM_ variable, nested keys joined
// by underscores:
//
//	COMPCHEM_LOGGING_CONSOLE=debug compchem logs emit
//
// # Loading Configuration
//
// Call [Init] once, then [Load]:
//
//	config.Init()
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	c, err := logging.NewConfigurator(cfg.Logging)
package config
