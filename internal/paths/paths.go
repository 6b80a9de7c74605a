package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "compchem"

// osLogDirs maps runtime.GOOS values to the default log directory for that
// operating system. A leading "~" is expanded against the user's home.
var osLogDirs = map[string]string{
	"darwin":  "~/Library/Logs/CompChemToolkit",
	"linux":   "/var/log/CompChemToolkit",
	"windows": `C:\Windows\System32\winevt\Logs`,
}

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPathType indicates a path value of an unsupported type.
	ErrInvalidPathType = errors.New("invalid path type")
)

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0755) is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ExpandHome replaces a leading "~" in p with the user's home directory.
// Paths that do not start with "~" are returned unchanged.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := ResolveHome()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// ConfigDir returns the directory searched for the compchem config file.
// Returns: <ConfigHome>/compchem/
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// LogDirFor returns the default log directory for the given GOOS value.
// The second result is false for operating systems without an entry.
func LogDirFor(goos string) (string, bool) {
	dir, ok := osLogDirs[goos]
	return dir, ok
}

// DefaultLogDir returns the log directory for the running operating system,
// falling back to the current working directory on unrecognized platforms.
func DefaultLogDir() string {
	if dir, ok := LogDirFor(runtime.GOOS); ok {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
