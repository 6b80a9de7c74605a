// Package paths provides path normalization and default directory lookup
// for compchem.
//
// # Normalization
//
// [Normalize] turns a path value into an absolute path with symbolic
// links resolved. A path value is nil, a string, or a [Path]:
//
//	p, err := paths.Normalize("some/relative/path")
//	// p == <cwd>/some/relative/path
//
//	_, err = paths.Normalize(123)
//	// errors.Is(err, paths.ErrInvalidPathType) == true
//
// # Default Log Directories
//
// [DefaultLogDir] consults a closed table keyed by runtime.GOOS:
//
//	| GOOS    | Directory                          |
//	|---------|------------------------------------|
//	| darwin  | ~/Library/Logs/CompChemToolkit     |
//	| linux   | /var/log/CompChemToolkit           |
//	| windows | C:\Windows\System32\winevt\Logs    |
//
// Any other platform falls back to the current working directory.
//
// # XDG Base Directory Compliance
//
// The config search directory wraps github.com/adrg/xdg so that it follows
// XDG conventions on Linux and the native locations elsewhere.
package paths
