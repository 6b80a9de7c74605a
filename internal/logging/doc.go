// Package logging provides named, hierarchical loggers for compchem built
// on [log/slog].
//
// # Configuring a Logger
//
// A [Configurator] resolves [Options] into a log file location and binds a
// [Logger] in a [Registry]:
//
//	opts := logging.DefaultOptions()
//	opts.Name = "optimizer"
//	opts.Console = slog.LevelInfo
//
//	c, err := logging.NewConfigurator(opts)
//	if err != nil {
//		return err
//	}
//	logger, err := c.Logger()
//	logger.Info("starting", "steps", 200)
//
// Names outside [RootName] become its children, so the logger above is
// "compchem.optimizer". A second Configurator for the same name returns the
// same Logger without attaching more sinks.
//
// Options can also be parsed from a map, as read from a config file. The key
// set is closed:
//
//	opts, err := logging.ParseOptions(map[string]any{"name": "scf", "console": "debug"})
//
// # Sinks and Line Formats
//
// The console sink writes "LEVEL: [logger] message" to stderr, colored when
// it is a terminal. The file sink writes
// "2006-01-02 15:04:05 [logger:line] LEVEL: message" or JSON lines, with
// optional size-based rotation. Either sink is disabled with [LevelOff].
//
// # Wrapping Calls
//
// [LogErrors] and [Named] wrap a [Func] to log errors, or arguments and
// results, around each call:
//
//	energy := logging.Named(logger, "energy", computeEnergy)
//	e, err := energy(ctx, geometry)
//
// # Testing
//
// Use [NewRegistry] to isolate loggers per test and [ForTest] to route
// diagnostics into the test log:
//
//	reg := logging.NewRegistry()
//	c, err := logging.NewConfigurator(opts,
//		logging.WithRegistry(reg),
//		logging.WithDiagnostics(logging.ForTest(t)))
package logging
