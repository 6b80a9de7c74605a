package logging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	crdb "github.com/cockroachdb/errors"
)

// Func is the shape of a function accepted by the call wrappers.
type Func[R any] func(ctx context.Context, args ...any) (R, error)

// LogErrors wraps fn so that a returned error is logged on l before being
// returned unchanged. Two Error records are written: one naming the function
// and the error, one carrying its trace. A panic is logged the same way and
// re-raised with its original value.
//
// If l is nil the logger carried by the call's context is used, and failing
// that the fallback logger also used by Named.
func LogErrors[R any](l *Logger, name string, fn Func[R]) Func[R] {
	return func(ctx context.Context, args ...any) (result R, err error) {
		target := l
		if target == nil {
			if fromCtx, ok := FromContext(ctx); ok {
				target = fromCtx
			} else {
				target = fallbackParent()
			}
		}

		defer func() {
			if p := recover(); p != nil {
				target.Error(fmt.Sprintf("Exception occurred in %s: %v", name, p))
				target.Error(string(debug.Stack()))
				panic(p)
			}
		}()

		result, err = fn(ctx, args...)
		if err != nil {
			target.Error(fmt.Sprintf("Exception occurred in %s: %s", name, err))
			target.Error(errorTrace(err))
		}
		return result, err
	}
}

// Named wraps fn with a logger named after it. At call time the parent is
// resolved from, in order, the explicit parent, the logger carried by the
// call's context, or the fallback logger; the latter two cases emit a
// warning on the first such call of the wrapper. The child "<parent>.<name>" then logs the arguments
// before the call and the result after it at Debug, or the error at Error.
//
// fn receives a context carrying the child logger, so FromContext inside fn
// returns it while the caller's context is left untouched.
func Named[R any](parent *Logger, name string, fn Func[R]) Func[R] {
	var warnOnce sync.Once
	return func(ctx context.Context, args ...any) (result R, err error) {
		p, warn := parent, false
		if p == nil {
			warn = true
			if fromCtx, ok := FromContext(ctx); ok {
				p = fromCtx
			} else {
				p = fallbackParent()
			}
		}

		child := p.Child(name)
		if warn {
			warnOnce.Do(func() {
				child.Warn(fmt.Sprintf("%s called without a parent logger.  Using %s as parent.", name, p.Name()))
			})
		}

		child.Debug("Begin function - Arguments: " + FormatArgs(args...))

		defer func() {
			if r := recover(); r != nil {
				child.Error(fmt.Sprintf("Logger '%s' Raised an exception: %v", name, r),
					slog.String("stack", string(debug.Stack())))
				panic(r)
			}
		}()

		if ctx == nil {
			ctx = context.Background()
		}
		result, err = fn(NewContext(ctx, child), args...)
		if err != nil {
			child.Error(fmt.Sprintf("Logger '%s' Raised an exception: %s", name, err),
				slog.String("trace", errorTrace(err)))
			return result, err
		}

		child.Debug(fmt.Sprintf("Returned: - return = %#v", result))
		return result, nil
	}
}

// FormatArgs renders call arguments for logging. slog.Attr arguments render
// as key=value; everything else uses its Go-syntax representation.
func FormatArgs(args ...any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if attr, ok := a.(slog.Attr); ok {
			parts[i] = fmt.Sprintf("%s=%#v", attr.Key, attr.Value.Any())
			continue
		}
		parts[i] = fmt.Sprintf("%#v", a)
	}
	return strings.Join(parts, ", ")
}

// errorTrace returns err's recorded stack trace when it carries one, and
// otherwise the current goroutine's stack.
func errorTrace(err error) string {
	if crdb.GetReportableStackTrace(err) != nil {
		return fmt.Sprintf("%+v", err)
	}
	return fmt.Sprintf("%v\n%s", err, debug.Stack())
}

// fallbackParent returns the logger used when no parent is available. It is
// configured on first use and shared by every wrapper afterwards.
var fallbackParent = memoizedFallback()

// memoizedFallback returns a function that configures the fallback logger
// once: console and file at Debug, by default in DefaultRegistry. If that
// logger cannot be configured the bare root logger of the registry is used.
func memoizedFallback(options ...ConfiguratorOption) func() *Logger {
	return sync.OnceValue(func() *Logger {
		opts := DefaultOptions()
		opts.Console = slog.LevelDebug
		opts.File = slog.LevelDebug

		c, err := NewConfigurator(opts, options...)
		if err != nil {
			return DefaultRegistry().Get(RootName)
		}
		l, err := c.Logger()
		if err != nil {
			return c.Registry().Get(RootName)
		}
		return l
	})
}
