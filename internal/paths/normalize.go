package paths

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Path is a structured filesystem path. It is interchangeable with a plain
// string wherever a path value is accepted.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Join appends elem to p using the OS separator.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

// Base returns the last element of p.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// Dir returns all but the last element of p.
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// Resolve returns the absolute, symlink-resolved form of p.
func (p Path) Resolve() (Path, error) {
	s, err := Normalize(p)
	return Path(s), err
}

// Normalize standardizes a path value into an absolute path with
// symbolic links resolved.
//
// The value may be nil, a string, a Path, or a *Path. nil (and a nil
// *Path) is treated as the empty string, which resolves to the current
// working directory. Any other type yields an error wrapping
// ErrInvalidPathType that names the offending type.
//
// Only the longest existing prefix of the path is consulted on disk; the rest
// is appended as-is. Nothing is created or modified.
func Normalize(spec any) (string, error) {
	raw, err := Raw(spec)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", errors.Wrapf(err, "making %q absolute", raw)
	}
	return resolve(abs), nil
}

// Raw extracts the unresolved path from a path value, applying the same
// type rules as Normalize.
func Raw(spec any) (string, error) {
	switch v := spec.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case Path:
		return string(v), nil
	case *Path:
		if v == nil {
			return "", nil
		}
		return string(*v), nil
	default:
		return "", InvalidTypeError(spec)
	}
}

// InvalidTypeError returns the ErrInvalidPathType error naming spec's type.
func InvalidTypeError(spec any) error {
	return errors.Newf("%w: %T, must be string or paths.Path", ErrInvalidPathType, spec)
}

// resolve evaluates symlinks in the longest existing prefix of abs and
// re-appends the missing tail.
func resolve(abs string) string {
	existing := abs
	var tail []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs
		}
		tail = append(tail, filepath.Base(existing))
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return abs
	}
	for i := len(tail) - 1; i >= 0; i-- {
		resolved = filepath.Join(resolved, tail[i])
	}
	return resolved
}
