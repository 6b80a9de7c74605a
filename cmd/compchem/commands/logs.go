package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/logging"
	"github.com/thoreinstein/compchem/pkg/fileutil"
)

// emitLevel holds the value of the logs emit --level flag.
var emitLevel string

// tailLines holds the value of the logs tail -n flag.
var tailLines int

func init() {
	logsEmitCmd.Flags().StringVarP(&emitLevel, "level", "l", "warning",
		"level of the emitted record: trace, debug, info, warning, error")
	logsTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 20,
		"number of lines to print; 0 prints the whole file")

	logsCmd.AddCommand(logsPathCmd)
	logsCmd.AddCommand(logsEmitCmd)
	logsCmd.AddCommand(logsTailCmd)
	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsRemoveCmd)
	rootCmd.AddCommand(logsCmd)
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect and exercise the compchem loggers",
	Long: `Inspect and exercise the logger configured from flags and config.

Without a subcommand, prints the log file path.`,
	Example: `  # Where are logs written?
  compchem logs path

  # Write a test record to the console and the log file
  compchem --console-level debug logs emit --level info "hello"

See Also: compchem config show`,
	RunE: runLogsPath,
}

var logsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the log file path",
	Long: `Print the resolved log file path. If the configured directory could not
be created the path points into the fallback directory.`,
	Args: cobra.NoArgs,
	RunE: runLogsPath,
}

var logsEmitCmd = &cobra.Command{
	Use:   "emit <message>...",
	Short: "Emit a log record",
	Long: `Emit one record through a child logger named "emit". The call is
traced at DEBUG with its arguments and result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLogsEmit,
}

var logsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the end of the log file",
	Long: `Print the last lines of the log file used by this run.

When the configured log directory cannot be created, each run logs into a
new temporary directory, so earlier runs' records are not shown. Pass
--log-dir with a writable directory to keep one log file across runs.`,
	Args: cobra.NoArgs,
	RunE:  runLogsTail,
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered loggers",
	Args:  cobra.NoArgs,
	RunE:  runLogsList,
}

var logsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Close a logger's handlers and remove it from the registry",
	Long: `Close the handlers of the named logger and remove it from the registry.
Names are placed under compchem; without a name the configured logger is
removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogsRemove,
}

func runLogsPath(cmd *cobra.Command, _ []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), appConfigurator.FilePath())
	return nil
}

func runLogsEmit(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(emitLevel)
	if err != nil {
		return errors.NewUserError(err, "Valid levels: trace, debug, info, warning, error")
	}
	if level >= logging.LevelOff {
		return errors.NewUserError(errors.Newf("cannot emit at level %s", emitLevel), "")
	}

	logger, _ := logging.FromContext(cmd.Context())
	emit := logging.Named(logger, "emit", func(ctx context.Context, a ...any) (string, error) {
		words := make([]string, len(a))
		for i, w := range a {
			words[i] = fmt.Sprint(w)
		}
		msg := strings.Join(words, " ")
		l, _ := logging.FromContext(ctx)
		l.Log(ctx, level, msg)
		return msg, nil
	})

	words := make([]any, len(args))
	for i, a := range args {
		words[i] = a
	}
	_, err = emit(cmd.Context(), words...)
	return err
}

func runLogsTail(cmd *cobra.Command, _ []string) error {
	logger, _ := logging.FromContext(cmd.Context())
	read := logging.LogErrors(logger, "logs tail", func(_ context.Context, a ...any) ([]byte, error) {
		return fileutil.ReadLimited(a[0].(string), 0)
	})

	data, err := read(cmd.Context(), appConfigurator.FilePath())
	if err != nil {
		return errors.NewSystemError(err, "Run: compchem logs path")
	}
	for _, line := range fileutil.LastLines(data, tailLines) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runLogsList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, name := range registry.Names() {
		l, ok := registry.Lookup(name)
		if !ok {
			continue
		}
		sinks := make([]string, 0, 2)
		for _, s := range l.Sinks() {
			sinks = append(sinks, s.Name())
		}
		fmt.Fprintf(out, "%-32s %s\n", name, strings.Join(sinks, ","))
	}
	return nil
}

func runLogsRemove(cmd *cobra.Command, args []string) error {
	name := appConfigurator.QualifiedName()
	if len(args) == 1 {
		name = logging.QualifiedName(args[0])
	}

	registry.SetOutput(cmd.OutOrStdout())
	_, existed := registry.Lookup(name)
	if !registry.Remove(name) {
		if !existed {
			return errors.NewUserError(errors.Wrapf(errors.ErrLoggerNotFound, "%s", name), "Run: compchem logs list")
		}
		return errors.NewSystemError(errors.Newf("closing handlers of %s", name), "")
	}
	slog.Debug("removed logger", "logger", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
	return nil
}
