package config

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/compchem/internal/errors"
	"github.com/thoreinstein/compchem/internal/logging"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNegative indicates a count that must not be negative.
	ErrNegative = errors.New("must not be negative")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	opts := cfg.Logging
	if err := validatePath(opts.LogDir); err != nil {
		errs = append(errs, &PathError{Field: "logging.logdir", Path: opts.LogDir, Err: err})
	}
	if err := validateFileName(opts.FileName); err != nil {
		errs = append(errs, &PathError{Field: "logging.fname", Path: opts.FileName, Err: err})
	}

	rot := opts.Rotation
	for _, f := range []struct {
		name  string
		value int
	}{
		{"rotation.max_size_mb", rot.MaxSizeMB},
		{"rotation.max_backups", rot.MaxBackups},
		{"rotation.max_age_days", rot.MaxAgeDays},
	} {
		if f.value < 0 {
			errs = append(errs, &FieldError{Field: f.name, Value: f.value, Err: ErrNegative})
		}
	}

	if opts.FileFormat != logging.FormatText && opts.FileFormat != logging.FormatJSON {
		errs = append(errs, &FieldError{Field: "logging.format", Value: opts.FileFormat, Err: errors.ErrInvalidOption})
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	// Null bytes are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	return nil
}

// validateFileName checks that a log file name has a usable base name.
func validateFileName(name string) error {
	if err := validatePath(name); err != nil {
		return err
	}
	if name != "" && filepath.Base(name) == string(filepath.Separator) {
		return ErrInvalidPath
	}
	return nil
}

// FieldError represents an invalid value for a config field.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ValidationError collects every problem Validate found. It matches
// errors.ErrInvalidConfig as well as each collected error.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return errors.ErrInvalidConfig.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

// Is reports whether target is errors.ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrInvalidConfig
}
