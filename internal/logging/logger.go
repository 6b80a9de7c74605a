package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Logger is a named node in a Registry's logger hierarchy. Records logged
// through it are handled by its own sinks and, while Propagate is true, by
// the sinks of each ancestor in turn.
//
// The embedded *slog.Logger provides the logging methods.
type Logger struct {
	*slog.Logger

	name     string
	registry *Registry

	mu        sync.RWMutex
	parent    *Logger
	sinks     []*Sink
	propagate bool
}

func newLogger(r *Registry, name string, parent *Logger) *Logger {
	l := &Logger{
		name:      name,
		registry:  r,
		parent:    parent,
		propagate: true,
	}
	l.Logger = slog.New(&nodeHandler{node: l})
	return l
}

// Name returns the dotted logger name.
func (l *Logger) Name() string {
	return l.name
}

// Registry returns the registry that owns l.
func (l *Logger) Registry() *Registry {
	return l.registry
}

// Parent returns the nearest registered ancestor, or nil for a top-level logger.
func (l *Logger) Parent() *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.parent
}

func (l *Logger) setParent(p *Logger) {
	l.mu.Lock()
	l.parent = p
	l.mu.Unlock()
}

// Propagate reports whether records are passed on to ancestor loggers.
func (l *Logger) Propagate() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.propagate
}

// SetPropagate sets whether records are passed on to ancestor loggers.
func (l *Logger) SetPropagate(v bool) {
	l.mu.Lock()
	l.propagate = v
	l.mu.Unlock()
}

// Sinks returns a copy of the sinks attached directly to l.
func (l *Logger) Sinks() []*Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Sink(nil), l.sinks...)
}

// HasSinks reports whether any sink is attached directly to l.
func (l *Logger) HasSinks() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sinks) > 0
}

// AddSink attaches s to l.
func (l *Logger) AddSink(s *Sink) {
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Child returns the logger named "<l.Name()>.<suffix>" from l's registry,
// creating it if needed.
func (l *Logger) Child(suffix string) *Logger {
	return l.registry.Get(l.name + "." + suffix)
}

// CloseHandlers detaches every sink from l and closes it. Close failures
// are reported to the registry output and make the result false.
func (l *Logger) CloseHandlers() bool {
	l.mu.Lock()
	sinks := l.sinks
	l.sinks = nil
	l.mu.Unlock()

	ok := true
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			fmt.Fprintf(l.registry.output(), "Error closing logger handlers: %v\n", err)
			ok = false
		}
	}
	return ok
}

// Close detaches and closes l's sinks and removes l from its registry.
func (l *Logger) Close() bool {
	return l.registry.Remove(l.name)
}

// snapshot returns l's sinks, propagate flag, and parent under one lock.
func (l *Logger) snapshot() ([]*Sink, bool, *Logger) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sinks, l.propagate, l.parent
}

// handlerOp is a WithAttrs or WithGroup call recorded by nodeHandler so it
// can be replayed onto each sink handler at dispatch time.
type handlerOp struct {
	group string
	attrs []slog.Attr
}

// nodeHandler resolves the sink chain of a Logger at dispatch time, so sinks
// attached or removed after a slog.Logger was derived are still honored.
type nodeHandler struct {
	node *Logger
	ops  []handlerOp
}

func (h *nodeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for n := h.node; n != nil; {
		sinks, propagate, parent := n.snapshot()
		for _, s := range sinks {
			if s.handler.Enabled(ctx, level) {
				return true
			}
		}
		if !propagate {
			break
		}
		n = parent
	}
	return false
}

func (h *nodeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for n := h.node; n != nil; {
		sinks, propagate, parent := n.snapshot()
		if len(sinks) > 0 {
			if err := h.dispatcher(sinks).Handle(ctx, r); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if !propagate {
			break
		}
		n = parent
	}
	return firstErr
}

// dispatcher derives one handler per sink carrying the originating logger
// name and the recorded attrs and groups.
func (h *nodeHandler) dispatcher(sinks []*Sink) *MultiHandler {
	handlers := make([]slog.Handler, len(sinks))
	for i, s := range sinks {
		sh := s.handler.WithAttrs([]slog.Attr{slog.String(LoggerKey, h.node.name)})
		for _, op := range h.ops {
			if op.group != "" {
				sh = sh.WithGroup(op.group)
			} else {
				sh = sh.WithAttrs(op.attrs)
			}
		}
		handlers[i] = sh
	}
	return NewMultiHandler(handlers...)
}

func (h *nodeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(handlerOp{attrs: attrs})
}

func (h *nodeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(handlerOp{group: name})
}

func (h *nodeHandler) with(op handlerOp) *nodeHandler {
	ops := make([]handlerOp, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &nodeHandler{node: h.node, ops: append(ops, op)}
}
