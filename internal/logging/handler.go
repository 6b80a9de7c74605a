package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LoggerKey is the attribute key carrying the originating logger's name.
// Handler renders it in the line prefix instead of as a key=value pair.
const LoggerKey = "logger"

// Layout selects the line layout of a Handler.
type Layout int

const (
	// LayoutConsole renders "LEVEL: [logger] message k=v".
	LayoutConsole Layout = iota
	// LayoutFile renders "2006-01-02 15:04:05 [logger:line] LEVEL: message k=v".
	LayoutFile
)

// palette holds the colors used when the writer supports them.
type palette struct {
	trace *color.Color
	debug *color.Color
	info  *color.Color
	warn  *color.Color
	err   *color.Color
	key   *color.Color
	name  *color.Color
}

func newPalette() *palette {
	return &palette{
		trace: color.New(color.FgHiBlack),
		debug: color.New(color.FgMagenta),
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
		key:   color.New(color.FgCyan),
		name:  color.New(color.FgHiBlack),
	}
}

func (p *palette) level(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return p.err
	case level >= slog.LevelWarn:
		return p.warn
	case level >= slog.LevelInfo:
		return p.info
	case level >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// Handler implements slog.Handler for line-oriented text output.
// Console handlers are colorized when the writer supports it.
type Handler struct {
	opts   slog.HandlerOptions
	layout Layout
	out    io.Writer
	mu     *sync.Mutex
	logger string
	attrs  []slog.Attr
	prefix string
	colors *palette
}

// NewHandler creates a console-layout handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	h := newHandler(out, opts, LayoutConsole)
	if SupportsColor(out) {
		h.colors = newPalette()
	}
	return h
}

// NewFileHandler creates a file-layout handler writing to out. It never
// emits color codes.
func NewFileHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	return newHandler(out, opts, LayoutFile)
}

func newHandler(out io.Writer, opts *slog.HandlerOptions, layout Layout) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		opts:   *opts,
		layout: layout,
		out:    out,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel && minLevel < LevelOff
}

// Handle formats r as a single line and writes it in one call.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b bytes.Buffer

	levelStr := LevelName(r.Level)
	if h.colors != nil {
		levelStr = h.colors.level(r.Level).Sprint(levelStr)
	}

	switch h.layout {
	case LayoutFile:
		if !r.Time.IsZero() {
			b.WriteString(r.Time.Format(time.DateTime))
			b.WriteByte(' ')
		}
		name := h.logger
		if name == "" {
			name = "root"
		}
		fmt.Fprintf(&b, "[%s:%d] %s: ", name, sourceLine(r.PC), levelStr)
	default:
		b.WriteString(levelStr)
		b.WriteString(": ")
		if h.logger != "" {
			name := "[" + h.logger + "]"
			if h.colors != nil {
				name = h.colors.name.Sprint(name)
			}
			b.WriteString(name)
			b.WriteByte(' ')
		}
	}

	b.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(b.Bytes())
	return err
}

func (h *Handler) appendAttr(b *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, groupPrefix, ga)
		}
		return
	}

	key := prefix + a.Key
	if h.colors != nil {
		key = h.colors.key.Sprint(key)
	}
	fmt.Fprintf(b, " %s=%v", key, a.Value.Any())
}

// WithAttrs returns a new Handler with the given attributes. A top-level
// LoggerKey attribute sets the logger name shown in the line prefix.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newH.attrs, h.attrs)
	for _, a := range attrs {
		if a.Key == LoggerKey && h.prefix == "" {
			newH.logger = a.Value.String()
			continue
		}
		a.Key = h.prefix + a.Key
		newH.attrs = append(newH.attrs, a)
	}
	return &newH
}

// WithGroup returns a new Handler that prefixes subsequent keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.prefix = h.prefix + name + "."
	return &newH
}

// sourceLine returns the line number of the call site recorded in pc.
func sourceLine(pc uintptr) int {
	if pc == 0 {
		return 0
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return frame.Line
}
