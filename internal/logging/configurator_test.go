package logging

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/compchem/internal/errors"
)

func withFS(ops fsOps) ConfiguratorOption {
	return func(c *Configurator) {
		c.fs = ops
	}
}

// testOptions returns options logging into a fresh temporary directory.
func testOptions(t *testing.T, name string) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.Name = name
	opts.LogDir = t.TempDir()
	return opts
}

func newTestConfigurator(t *testing.T, opts Options, extra ...ConfiguratorOption) (*Configurator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var console, diag bytes.Buffer
	options := append([]ConfiguratorOption{
		WithRegistry(NewRegistry()),
		WithConsoleOutput(&console),
		WithDiagnostics(slog.New(NewHandler(&diag, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}, extra...)
	c, err := NewConfigurator(opts, options...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Registry().CloseAll() })
	return c, &console, &diag
}

func TestNewConfigurator_Defaults(t *testing.T) {
	opts := testOptions(t, "TestLogger")
	c, _, _ := newTestConfigurator(t, opts)

	assert.Equal(t, "TestLogger", c.Name())
	assert.Equal(t, "compchem.TestLogger", c.QualifiedName())
	assert.Equal(t, LevelOff, c.ConsoleLevel())
	assert.Equal(t, slog.LevelWarn, c.FileLevel())
	assert.Equal(t, DefaultFileName, c.FileName())
	assert.True(t, c.Propagate())

	wantDir, err := filepath.EvalSymlinks(opts.LogDir)
	require.NoError(t, err)
	assert.Equal(t, wantDir, c.LogDir())
	assert.Equal(t, filepath.Join(c.LogDir(), DefaultFileName), c.FilePath())
}

func TestNewConfigurator_EmptyFieldsTakeDefaults(t *testing.T) {
	c, _, _ := newTestConfigurator(t, Options{LogDir: t.TempDir()})
	assert.Equal(t, RootName, c.Name())
	assert.Equal(t, RootName, c.QualifiedName())
	assert.Equal(t, DefaultFileName, c.FileName())
}

func TestNewConfigurator_FileNameUsesBase(t *testing.T) {
	opts := testOptions(t, "base")
	opts.FileName = "nested/dir/run.log"
	c, _, _ := newTestConfigurator(t, opts)

	assert.Equal(t, "run.log", c.FileName())
	assert.Equal(t, filepath.Join(c.LogDir(), "run.log"), c.FilePath())
}

func TestNewConfigurator_RejectsRootFileName(t *testing.T) {
	opts := testOptions(t, "rootname")
	opts.FileName = string(filepath.Separator)
	_, err := NewConfigurator(opts, WithRegistry(NewRegistry()), WithDiagnostics(NewDiscard()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidOption))
}

func TestNewConfigurator_CreatesMissingDir(t *testing.T) {
	opts := testOptions(t, "mkdir")
	opts.LogDir = filepath.Join(opts.LogDir, "a", "b")
	c, _, diag := newTestConfigurator(t, opts)

	info, err := os.Stat(c.LogDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NotContains(t, diag.String(), "already exists")
}

func TestNewConfigurator_ExistingDirWarns(t *testing.T) {
	_, _, diag := newTestConfigurator(t, testOptions(t, "exists"))
	assert.Contains(t, diag.String(), "WARNING: log directory already exists")
}

func TestNewConfigurator_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	opts := testOptions(t, "home")
	opts.LogDir = "~/logs"
	c, _, _ := newTestConfigurator(t, opts)

	wantHome, err := filepath.EvalSymlinks(home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wantHome, "logs"), c.LogDir())
}

func TestNewConfigurator_PermissionDeniedUsesTempDir(t *testing.T) {
	requested := filepath.Join(t.TempDir(), "forbidden")
	var created string
	ops := osFS
	ops.mkdirAll = func(path string, _ fs.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrPermission}
	}
	ops.mkdirTemp = func(dir, pattern string) (string, error) {
		d, err := os.MkdirTemp(dir, pattern)
		created = d
		return d, err
	}
	t.Cleanup(func() {
		if created != "" {
			os.RemoveAll(created)
		}
	})

	opts := testOptions(t, "denied")
	opts.LogDir = requested
	c, _, diag := newTestConfigurator(t, opts, withFS(ops))

	require.NotEmpty(t, created)
	wantDir, err := filepath.EvalSymlinks(created)
	require.NoError(t, err)
	assert.Equal(t, wantDir, c.LogDir())
	assert.NotEqual(t, requested, c.LogDir())
	assert.True(t, strings.HasPrefix(filepath.Base(c.LogDir()), "compchem-"))
	assert.Equal(t, filepath.Join(c.LogDir(), DefaultFileName), c.FilePath())

	info, err := os.Stat(c.LogDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	out := diag.String()
	assert.Contains(t, out, "ERROR: permission denied creating log directory")
	assert.Contains(t, out, "INFO: using alternate logging directory")
}

func TestNewConfigurator_TempDirFailureUsesWorkingDirectory(t *testing.T) {
	ops := osFS
	ops.mkdirAll = func(path string, _ fs.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrPermission}
	}
	ops.mkdirTemp = func(string, string) (string, error) {
		return "", &fs.PathError{Op: "mkdirtemp", Path: os.TempDir(), Err: fs.ErrPermission}
	}

	opts := testOptions(t, "nowhere")
	opts.LogDir = filepath.Join(opts.LogDir, "forbidden")
	c, _, diag := newTestConfigurator(t, opts, withFS(ops))

	wd, err := os.Getwd()
	require.NoError(t, err)
	wantDir, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Equal(t, wantDir, c.LogDir())
	assert.Contains(t, diag.String(), "falling back to working directory")
}

func TestNewConfigurator_TempPathNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	ops := osFS
	ops.mkdirAll = func(path string, _ fs.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrPermission}
	}
	ops.mkdirTemp = func(string, string) (string, error) { return file, nil }

	opts := testOptions(t, "notdir")
	opts.LogDir = filepath.Join(opts.LogDir, "forbidden")
	c, _, diag := newTestConfigurator(t, opts, withFS(ops))

	assert.NotEqual(t, file, c.LogDir())
	assert.Contains(t, diag.String(), "is not a directory")
}

func TestNewConfigurator_OtherMkdirErrorKeepsDir(t *testing.T) {
	ops := osFS
	ops.mkdirAll = func(path string, _ fs.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("read-only file system")}
	}

	opts := testOptions(t, "rofs")
	requested := filepath.Join(opts.LogDir, "sub")
	opts.LogDir = requested
	c, _, diag := newTestConfigurator(t, opts, withFS(ops))

	assert.Equal(t, filepath.Base(requested), filepath.Base(c.LogDir()))
	assert.Contains(t, diag.String(), "ERROR: could not create log directory")
	assert.NotContains(t, diag.String(), "alternate")
}

func TestNewConfigurator_MkdirRaceExistIsWarning(t *testing.T) {
	ops := osFS
	ops.mkdirAll = func(path string, _ fs.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}

	opts := testOptions(t, "race")
	opts.LogDir = filepath.Join(opts.LogDir, "sub")
	_, _, diag := newTestConfigurator(t, opts, withFS(ops))

	assert.Contains(t, diag.String(), "WARNING: log directory already exists")
}

func TestNewConfigurator_ExistingFileAsDirIsWarning(t *testing.T) {
	opts := testOptions(t, "plainfile")
	requested := filepath.Join(opts.LogDir, "logs")
	require.NoError(t, os.WriteFile(requested, nil, 0o600))
	opts.LogDir = requested
	c, _, diag := newTestConfigurator(t, opts)

	assert.Equal(t, "logs", filepath.Base(c.LogDir()))
	out := diag.String()
	assert.Contains(t, out, "WARNING: log directory already exists and is not a directory")
	assert.NotContains(t, out, "could not create log directory")
	assert.NotContains(t, out, "alternate")
}

func TestConfigurator_LoggerWritesFile(t *testing.T) {
	c, console, _ := newTestConfigurator(t, testOptions(t, "filelog"))

	l, err := c.Logger()
	require.NoError(t, err)
	assert.Equal(t, "compchem.filelog", l.Name())
	require.Len(t, l.Sinks(), 1)
	assert.Equal(t, SinkFile, l.Sinks()[0].Name())

	l.Info("below threshold")
	l.Warn("kept", "atom", "C")
	require.True(t, c.Registry().CloseAll())

	data, err := os.ReadFile(c.FilePath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[compchem.filelog:")
	assert.True(t, strings.HasSuffix(lines[0], "WARNING: kept atom=C"), lines[0])
	assert.Empty(t, console.String())
}

func TestConfigurator_LoggerAppendsToExistingFile(t *testing.T) {
	opts := testOptions(t, "append")
	path := filepath.Join(opts.LogDir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o600))

	c, _, _ := newTestConfigurator(t, opts)
	l, err := c.Logger()
	require.NoError(t, err)
	l.Error("later")
	c.Registry().CloseAll()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "earlier\n"))
	assert.Contains(t, string(data), "ERROR: later")
}

func TestConfigurator_ConsoleSink(t *testing.T) {
	opts := testOptions(t, "console")
	opts.Console = slog.LevelInfo
	opts.File = LevelOff
	c, console, _ := newTestConfigurator(t, opts)

	l, err := c.Logger()
	require.NoError(t, err)
	require.Len(t, l.Sinks(), 1)
	assert.Equal(t, SinkConsole, l.Sinks()[0].Name())

	l.Debug("hidden")
	l.Info("shown")
	assert.Equal(t, "INFO: [compchem.console] shown\n", console.String())

	_, err = os.Stat(c.FilePath())
	assert.True(t, os.IsNotExist(err), "no file should be created when the file sink is off")
}

func TestConfigurator_BothOffHasNoSinks(t *testing.T) {
	opts := testOptions(t, "silent")
	opts.File = LevelOff
	c, _, _ := newTestConfigurator(t, opts)

	l, err := c.Logger()
	require.NoError(t, err)
	assert.False(t, l.HasSinks())
}

func TestConfigurator_ReusesExistingLogger(t *testing.T) {
	opts := testOptions(t, "reuse")
	opts.Console = slog.LevelDebug
	c, console, diag := newTestConfigurator(t, opts)

	first, err := c.Logger()
	require.NoError(t, err)

	opts.Propagate = false
	again, err := NewConfigurator(opts,
		WithRegistry(c.Registry()),
		WithConsoleOutput(console),
		WithDiagnostics(slog.New(NewHandler(diag, nil))))
	require.NoError(t, err)
	second, err := again.Logger()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, second.Sinks(), 2)
	assert.False(t, second.Propagate())
	assert.Contains(t, diag.String(), "using existing logger")

	console.Reset()
	second.Info("once")
	assert.Equal(t, 1, strings.Count(console.String(), "once"))
}

func TestConfigurator_JSONFileFormat(t *testing.T) {
	opts := testOptions(t, "json")
	opts.FileFormat = FormatJSON
	opts.File = slog.LevelInfo
	c, _, _ := newTestConfigurator(t, opts)

	l, err := c.Logger()
	require.NoError(t, err)
	l.Info("structured", "atoms", 3)
	c.Registry().CloseAll()

	data, err := os.ReadFile(c.FilePath())
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "structured", rec["msg"])
	assert.Equal(t, "compchem.json", rec[LoggerKey])
	assert.Equal(t, float64(3), rec["atoms"])
	assert.Contains(t, rec, slog.SourceKey)
}

func TestConfigurator_RotatingFile(t *testing.T) {
	opts := testOptions(t, "rotate")
	opts.Rotation = Rotation{MaxSizeMB: 1, MaxBackups: 2}
	c, _, _ := newTestConfigurator(t, opts)

	l, err := c.Logger()
	require.NoError(t, err)
	l.Warn("rotated")
	require.True(t, c.Registry().CloseAll())

	data, err := os.ReadFile(c.FilePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "WARNING: rotated")
}

func TestConfigurator_PropagatesToRoot(t *testing.T) {
	reg := NewRegistry()
	var console bytes.Buffer

	rootOpts := testOptions(t, "")
	rootOpts.Console = slog.LevelDebug
	rootOpts.File = LevelOff
	rc, err := NewConfigurator(rootOpts, WithRegistry(reg), WithConsoleOutput(&console), WithDiagnostics(NewDiscard()))
	require.NoError(t, err)
	_, err = rc.Logger()
	require.NoError(t, err)

	childOpts := testOptions(t, "sub")
	childOpts.File = LevelOff
	cc, err := NewConfigurator(childOpts, WithRegistry(reg), WithDiagnostics(NewDiscard()))
	require.NoError(t, err)
	child, err := cc.Logger()
	require.NoError(t, err)

	child.Info("up")
	assert.Equal(t, "INFO: [compchem.sub] up\n", console.String())
}

func TestConfigurator_FileOpenFailure(t *testing.T) {
	opts := testOptions(t, "blocked")
	opts.Console = slog.LevelInfo
	// A directory where the log file should be makes opening it fail.
	require.NoError(t, os.Mkdir(filepath.Join(opts.LogDir, DefaultFileName), 0o755))
	c, _, _ := newTestConfigurator(t, opts)

	_, err := c.Logger()
	require.Error(t, err)
	l, ok := c.Registry().Lookup(c.QualifiedName())
	require.True(t, ok)
	assert.False(t, l.HasSinks(), "no partial sinks are attached")
}
