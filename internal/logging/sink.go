package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thoreinstein/compchem/internal/errors"
)

// Sink names used by the Configurator.
const (
	SinkConsole = "console"
	SinkFile    = "file"
)

// Rotation configures size-based rotation of the file sink.
// Rotation is disabled when MaxSizeMB is zero.
type Rotation struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// Enabled reports whether rotation is configured.
func (r Rotation) Enabled() bool {
	return r.MaxSizeMB > 0
}

// Sink is an output destination attached to a Logger: a slog.Handler plus
// the resource it writes to.
type Sink struct {
	name    string
	handler slog.Handler
	closer  io.Closer

	once     sync.Once
	closeErr error
}

// NewSink wraps handler as a named sink. closer may be nil for writers the
// sink does not own, such as os.Stderr.
func NewSink(name string, handler slog.Handler, closer io.Closer) *Sink {
	return &Sink{name: name, handler: handler, closer: closer}
}

// Name returns the sink name.
func (s *Sink) Name() string {
	return s.name
}

// Handler returns the handler records are dispatched to.
func (s *Sink) Handler() slog.Handler {
	return s.handler
}

// Close releases the sink's writer. Subsequent calls return the first result.
func (s *Sink) Close() error {
	s.once.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

// newConsoleSink creates a console sink writing to w at level.
func newConsoleSink(w io.Writer, level slog.Level) *Sink {
	return NewSink(SinkConsole, NewHandler(w, &slog.HandlerOptions{Level: level}), nil)
}

// newFileSink opens path for appending and creates a file sink at level.
func newFileSink(path string, level slog.Level, format Format, rot Rotation) (*Sink, error) {
	w, err := openLogFile(path, rot)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch format {
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: true})
	default:
		h = NewFileHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewSink(SinkFile, h, w), nil
}

// openLogFile opens path for appending. With rotation enabled the file is
// managed by lumberjack, which opens it lazily on first write.
func openLogFile(path string, rot Rotation) (io.WriteCloser, error) {
	if rot.Enabled() {
		return &lumberjack.Logger{
			Filename:   path,
			MaxSize:    rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAge:     rot.MaxAgeDays,
			Compress:   rot.Compress,
		}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}
	return f, nil
}
