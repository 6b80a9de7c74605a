package logging

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// RootName is the top of the compchem logger hierarchy.
const RootName = "compchem"

// QualifiedName places name under RootName unless it already is there.
// An empty name is RootName itself.
func QualifiedName(name string) string {
	if name == "" {
		return RootName
	}
	if name == RootName || strings.HasPrefix(name, RootName+".") {
		return name
	}
	return RootName + "." + name
}

// parentName returns the dotted prefix of name, or "" for a top-level name.
func parentName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// Registry maps dotted names to Loggers. Each Configurator binds into one
// registry; tests can create isolated registries with NewRegistry.
type Registry struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	out     io.Writer
}

// NewRegistry creates an empty registry that reports removal problems to
// os.Stdout.
func NewRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]*Logger),
		out:     os.Stdout,
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when no other is
// supplied.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SetOutput sets where removal and close failures are reported.
func (r *Registry) SetOutput(w io.Writer) {
	r.mu.Lock()
	r.out = w
	r.mu.Unlock()
}

func (r *Registry) output() io.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}

// Get returns the logger registered under name, creating it and any missing
// ancestors. An empty name returns the RootName logger.
func (r *Registry) Get(name string) *Logger {
	if name == "" {
		name = RootName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(name)
}

func (r *Registry) getLocked(name string) *Logger {
	if l, ok := r.loggers[name]; ok {
		return l
	}

	var parent *Logger
	if pn := parentName(name); pn != "" {
		parent = r.getLocked(pn)
	}
	l := newLogger(r, name, parent)
	r.loggers[name] = l

	// Descendants that lost this node to an earlier Remove move back under it.
	for other, ol := range r.loggers {
		if !strings.HasPrefix(other, name+".") {
			continue
		}
		if p := ol.Parent(); p == nil || len(p.name) < len(name) {
			ol.setParent(l)
		}
	}
	return l
}

// Lookup returns the logger registered under name without creating it.
func (r *Registry) Lookup(name string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[name]
	return l, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	r.mu.Unlock()
	slices.Sort(names)
	return names
}

// bind returns the logger for name. When it already has sinks it is returned
// as-is with reused set; otherwise build is called and its sinks attached.
func (r *Registry) bind(name string, build func() ([]*Sink, error)) (l *Logger, reused bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l = r.getLocked(name)
	if l.HasSinks() {
		return l, true, nil
	}

	sinks, err := build()
	if err != nil {
		return nil, false, err
	}
	for _, s := range sinks {
		l.AddSink(s)
	}
	return l, false, nil
}

// Remove detaches and closes the sinks of the named logger and deletes it
// from the registry. Its children are re-parented to its parent.
//
// It returns false when the name is not registered, which is also reported
// to the registry output, or when a sink fails to close.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	l, ok := r.loggers[name]
	out := r.out
	r.mu.Unlock()

	if !ok {
		fmt.Fprintf(out, "Logger named '%s' not found in registry.\n", name)
		return false
	}

	closed := l.CloseHandlers()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loggers[name] != l {
		// Removed concurrently.
		return false
	}
	delete(r.loggers, name)
	parent := l.Parent()
	for _, other := range r.loggers {
		if other.Parent() == l {
			other.setParent(parent)
		}
	}
	return closed
}

// CloseAll closes the sinks of every registered logger. Loggers stay
// registered. It returns false if any sink failed to close.
func (r *Registry) CloseAll() bool {
	r.mu.Lock()
	loggers := make([]*Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		loggers = append(loggers, l)
	}
	r.mu.Unlock()

	ok := true
	for _, l := range loggers {
		if !l.CloseHandlers() {
			ok = false
		}
	}
	return ok
}
