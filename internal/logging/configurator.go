package logging

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/paths"
)

// fsOps are the filesystem calls made while resolving the log directory.
type fsOps struct {
	stat      func(name string) (fs.FileInfo, error)
	mkdirAll  func(path string, perm fs.FileMode) error
	mkdirTemp func(dir, pattern string) (string, error)
}

var osFS = fsOps{
	stat:      os.Stat,
	mkdirAll:  os.MkdirAll,
	mkdirTemp: os.MkdirTemp,
}

// Configurator resolves Options into a log file location and binds a named
// Logger in a Registry.
//
// Construction validates the options, resolves and creates the log directory
// (falling back to a temporary directory, then the working directory, when
// permission is denied) and computes the log file path. Logger then returns
// the bound logger.
type Configurator struct {
	name       string
	console    slog.Level
	file       slog.Level
	logDir     string
	fileName   string
	filePath   string
	propagate  bool
	format     Format
	rotation   Rotation
	registry   *Registry
	diag       *slog.Logger
	consoleOut io.Writer
	fs         fsOps
}

// ConfiguratorOption customizes a Configurator.
type ConfiguratorOption func(*Configurator)

// WithRegistry binds loggers into r instead of DefaultRegistry.
func WithRegistry(r *Registry) ConfiguratorOption {
	return func(c *Configurator) {
		c.registry = r
	}
}

// WithDiagnostics sets the logger that receives directory warnings and
// binding notices. The default is slog.Default().
func WithDiagnostics(l *slog.Logger) ConfiguratorOption {
	return func(c *Configurator) {
		c.diag = l
	}
}

// WithConsoleOutput sets the console sink writer. The default is os.Stderr.
func WithConsoleOutput(w io.Writer) ConfiguratorOption {
	return func(c *Configurator) {
		c.consoleOut = w
	}
}

// NewConfigurator validates opts and resolves the log file location.
// Empty Name, LogDir, FileName and FileFormat take their defaults.
//
// Directory problems never fail construction: they are reported on the
// diagnostics logger. Errors are returned only for unusable file names.
func NewConfigurator(opts Options, options ...ConfiguratorOption) (*Configurator, error) {
	c := &Configurator{
		name:       opts.Name,
		console:    opts.Console,
		file:       opts.File,
		propagate:  opts.Propagate,
		format:     opts.FileFormat,
		rotation:   opts.Rotation,
		registry:   DefaultRegistry(),
		diag:       slog.Default(),
		consoleOut: os.Stderr,
		fs:         osFS,
	}
	for _, o := range options {
		o(c)
	}

	if c.name == "" {
		c.name = RootName
	}
	if c.format != FormatJSON {
		c.format = FormatText
	}

	logDir := opts.LogDir
	if logDir == "" {
		logDir = paths.DefaultLogDir()
	}
	if err := c.setLogDir(logDir); err != nil {
		return nil, err
	}
	c.ensureLogDir()

	fileName := opts.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	if err := c.setFileName(fileName); err != nil {
		return nil, err
	}
	return c, nil
}

// Name returns the configured logger name as given.
func (c *Configurator) Name() string { return c.name }

// QualifiedName returns the registry name of the logger.
func (c *Configurator) QualifiedName() string { return QualifiedName(c.name) }

// ConsoleLevel returns the console threshold; LevelOff means disabled.
func (c *Configurator) ConsoleLevel() slog.Level { return c.console }

// FileLevel returns the file threshold; LevelOff means disabled.
func (c *Configurator) FileLevel() slog.Level { return c.file }

// LogDir returns the absolute, resolved log directory.
func (c *Configurator) LogDir() string { return c.logDir }

// FileName returns the base name of the log file.
func (c *Configurator) FileName() string { return c.fileName }

// FilePath returns LogDir joined with FileName.
func (c *Configurator) FilePath() string { return c.filePath }

// Propagate reports whether the bound logger passes records to its ancestors.
func (c *Configurator) Propagate() bool { return c.propagate }

// Registry returns the registry loggers are bound into.
func (c *Configurator) Registry() *Registry { return c.registry }

func (c *Configurator) setLogDir(dir string) error {
	expanded, err := paths.ExpandHome(dir)
	if err != nil {
		c.diag.Warn("could not expand home directory", "dir", dir, "error", err)
		expanded = dir
	}
	resolved, err := paths.Normalize(expanded)
	if err != nil {
		return errors.Wrap(err, "resolving log directory")
	}
	c.logDir = resolved
	return nil
}

func (c *Configurator) setFileName(name string) error {
	resolved, err := paths.Normalize(name)
	if err != nil {
		return errors.Wrap(err, "resolving log file name")
	}
	base := filepath.Base(resolved)
	if base == string(filepath.Separator) || base == "." {
		return errors.Wrapf(errors.ErrInvalidOption, "log file name %q has no base name", name)
	}
	c.fileName = base
	c.filePath = filepath.Join(c.logDir, base)
	return nil
}

// ensureLogDir creates the log directory. An existing path, directory or
// not, is reported as a warning and kept. Permission errors switch to an
// alternate directory; other errors are reported and the directory may not
// exist.
func (c *Configurator) ensureLogDir() {
	if info, err := c.fs.stat(c.logDir); err == nil {
		if !info.IsDir() {
			c.diag.Warn("log directory already exists and is not a directory", "dir", c.logDir)
			return
		}
		c.diag.Warn("log directory already exists", "dir", c.logDir)
		return
	}

	err := c.fs.mkdirAll(c.logDir, paths.DefaultDirPerm)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		c.diag.Warn("log directory already exists", "dir", c.logDir)
	case errors.Is(err, fs.ErrPermission):
		c.diag.Error("permission denied creating log directory", "dir", c.logDir, "error", err)
		c.useAlternateLogDir()
	default:
		c.diag.Error("could not create log directory", "dir", c.logDir, "error", err)
	}
}

// useAlternateLogDir switches to a new temporary directory, or to the
// working directory if that fails. It always leaves logDir set.
func (c *Configurator) useAlternateLogDir() {
	dir, err := c.alternateLogDir()
	if err == nil {
		c.logDir = dir
		c.diag.Info("using alternate logging directory", "dir", dir)
		return
	}

	c.diag.Error("failed to create an alternate logging directory, falling back to working directory", "error", err)
	wd, wdErr := paths.Normalize(nil)
	if wdErr != nil {
		wd = "."
	}
	c.logDir = wd
	c.diag.Info("using working directory for logging", "dir", wd)
}

func (c *Configurator) alternateLogDir() (string, error) {
	dir, err := c.fs.mkdirTemp(os.TempDir(), "compchem-")
	if err != nil {
		return "", errors.Wrap(err, "creating temporary directory")
	}
	info, err := c.fs.stat(dir)
	if err != nil {
		return "", errors.Wrapf(err, "checking %s", dir)
	}
	if !info.IsDir() {
		return "", errors.Newf("created path %s is not a directory", dir)
	}
	return paths.Normalize(dir)
}

// Logger returns the logger bound to the configured name. If the registry
// already holds a logger with sinks under that name it is reused and no
// sinks are added. Otherwise the enabled sinks are created and attached.
// Either way the logger's propagation is set to the configured value.
func (c *Configurator) Logger() (*Logger, error) {
	name := c.QualifiedName()
	l, reused, err := c.registry.bind(name, c.buildSinks)
	if err != nil {
		return nil, errors.Wrapf(err, "configuring logger %s", name)
	}
	if reused {
		c.diag.Info("using existing logger", "logger", name)
	}
	l.SetPropagate(c.propagate)
	return l, nil
}

func (c *Configurator) buildSinks() ([]*Sink, error) {
	var sinks []*Sink
	if c.console < LevelOff {
		sinks = append(sinks, newConsoleSink(c.consoleOut, c.console))
		c.diag.Debug("console logging enabled", "logger", c.QualifiedName(), "level", LevelName(c.console))
	}
	if c.file < LevelOff {
		s, err := newFileSink(c.filePath, c.file, c.format, c.rotation)
		if err != nil {
			for _, made := range sinks {
				_ = made.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
		c.diag.Debug("file logging enabled", "logger", c.QualifiedName(), "path", c.filePath, "level", LevelName(c.file))
	}
	return sinks, nil
}
