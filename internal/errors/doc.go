// Package errors provides error handling conventions for compchem.
//
// Construction and wrapping go through github.com/cockroachdb/errors so that
// every error created here carries a stack trace. Formatting such an error
// with %+v prints that trace, which the logging wrappers rely on.
//
// # Sentinel Errors
//
//	if errors.Is(err, errors.ErrUnknownOption) {
//	    // a logger option key outside the closed set
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. It supports unwrapping via [errors.Unwrap] and [errors.As]:
//
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    os.Exit(exitErr.Code)
//	}
package errors
