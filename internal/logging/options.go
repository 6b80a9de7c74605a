package logging

import (
	"log/slog"
	"slices"

	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/paths"
)

// DefaultFileName is the log file name used when none is given.
const DefaultFileName = "compchem.log"

// Option keys accepted by ParseOptions.
const (
	KeyName      = "name"
	KeyConsole   = "console"
	KeyFile      = "file"
	KeyLogDir    = "logdir"
	KeyFileName  = "fname"
	KeyPropagate = "propagate"
	KeyFormat    = "format"
)

// KnownKeys is the closed set of option keys.
var KnownKeys = []string{KeyName, KeyConsole, KeyFile, KeyLogDir, KeyFileName, KeyPropagate, KeyFormat}

// Options configures a Configurator. Start from DefaultOptions; the zero
// value enables both sinks at Info and disables propagation.
type Options struct {
	// Name is the logger name. Names outside RootName become its children.
	Name string
	// Console is the console sink threshold. LevelOff disables the sink.
	Console slog.Level
	// File is the file sink threshold. LevelOff disables the sink.
	File slog.Level
	// LogDir is the directory holding the log file. A leading "~" is expanded.
	LogDir string
	// FileName is the log file name. Only its base name is used.
	FileName string
	// Propagate passes records on to ancestor loggers.
	Propagate bool
	// FileFormat selects text or JSON lines for the file sink.
	FileFormat Format
	// Rotation enables size-based rotation of the log file.
	Rotation Rotation
}

// DefaultOptions returns the defaults: RootName, no console output, file
// output at Warn in the platform log directory, propagation on.
func DefaultOptions() Options {
	return Options{
		Name:       RootName,
		Console:    LevelOff,
		File:       slog.LevelWarn,
		LogDir:     paths.DefaultLogDir(),
		FileName:   DefaultFileName,
		Propagate:  true,
		FileFormat: FormatText,
	}
}

// ParseOptions builds Options from a key/value map, starting from
// DefaultOptions. Keys outside KnownKeys fail with ErrUnknownOption.
//
// console and file accept nil (disabled), a slog.Leveler, an integer, or a
// level name. logdir and fname accept a string or paths.Path; a nil logdir
// means the working directory, a nil fname is an invalid path type.
func ParseOptions(kv map[string]any) (Options, error) {
	opts := DefaultOptions()

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := kv[k]
		var err error
		switch k {
		case KeyName:
			s, ok := v.(string)
			if !ok {
				return Options{}, invalidOption(k, v)
			}
			opts.Name = s
		case KeyConsole:
			opts.Console, err = levelValue(k, v)
		case KeyFile:
			opts.File, err = levelValue(k, v)
		case KeyLogDir:
			if v == nil {
				opts.LogDir = "."
				continue
			}
			opts.LogDir, err = pathValue(k, v)
		case KeyFileName:
			opts.FileName, err = pathValue(k, v)
		case KeyPropagate:
			b, ok := v.(bool)
			if !ok {
				return Options{}, invalidOption(k, v)
			}
			opts.Propagate = b
		case KeyFormat:
			s, ok := v.(string)
			if !ok || (Format(s) != FormatText && Format(s) != FormatJSON) {
				return Options{}, invalidOption(k, v)
			}
			opts.FileFormat = Format(s)
		default:
			return Options{}, errors.Newf("%w: %q", errors.ErrUnknownOption, k)
		}
		if err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

// Map renders o with the keys accepted by ParseOptions.
func (o Options) Map() map[string]any {
	return map[string]any{
		KeyName:      o.Name,
		KeyConsole:   LevelName(o.Console),
		KeyFile:      LevelName(o.File),
		KeyLogDir:    o.LogDir,
		KeyFileName:  o.FileName,
		KeyPropagate: o.Propagate,
		KeyFormat:    string(o.FileFormat),
	}
}

func invalidOption(key string, v any) error {
	return errors.Newf("%w: %s=%#v (%T)", errors.ErrInvalidOption, key, v, v)
}

func levelValue(key string, v any) (slog.Level, error) {
	switch lv := v.(type) {
	case nil:
		return LevelOff, nil
	case slog.Leveler:
		return lv.Level(), nil
	case int:
		return slog.Level(lv), nil
	case int64:
		return slog.Level(lv), nil
	case float64:
		if lv != float64(int(lv)) {
			return 0, invalidOption(key, v)
		}
		return slog.Level(int(lv)), nil
	case string:
		level, err := ParseLevel(lv)
		if err != nil {
			return 0, errors.Wrapf(err, "option %s", key)
		}
		return level, nil
	default:
		return 0, invalidOption(key, v)
	}
}

func pathValue(key string, v any) (string, error) {
	if v == nil {
		return "", errors.Wrapf(paths.InvalidTypeError(v), "option %s", key)
	}
	raw, err := paths.Raw(v)
	if err != nil {
		return "", errors.Wrapf(err, "option %s", key)
	}
	return raw, nil
}
