package doctor

import (
	"fmt"
	"os"
	"runtime"

	"github.com/thoreinstein/compchem/internal/paths"
)

// maxLogFilePerm is the widest expected permission for the log file (-rw-r--r--).
const maxLogFilePerm os.FileMode = 0o644

// LogDirCheck reports whether logging ended up in the requested directory
// and whether that directory accepts new files.
type LogDirCheck struct {
	// Requested is the log directory as configured, before resolution.
	Requested string
	// Resolved is the directory the configurator settled on.
	Resolved string
}

var _ Check = (*LogDirCheck)(nil)

// Name returns the unique identifier for this check.
func (c *LogDirCheck) Name() string { return "log-directory" }

// Category returns the grouping for this check.
func (c *LogDirCheck) Category() string { return "logging" }

// Run checks the resolved directory is writable and flags a fallback.
func (c *LogDirCheck) Run() *CheckResult {
	result := &CheckResult{
		Details: map[string]any{"requested": c.Requested, "resolved": c.Resolved},
	}

	if err := probeWritable(c.Resolved); err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot write to %s: %v", c.Resolved, err)
		result.FixHint = "pass --log-dir with a writable directory"
		return result
	}

	want := c.Requested
	if expanded, err := paths.ExpandHome(want); err == nil {
		want = expanded
	}
	if normalized, err := paths.Normalize(want); err == nil {
		want = normalized
	}
	if want != c.Resolved {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("%s could not be used, logging to %s", c.Requested, c.Resolved)
		result.FixHint = "create the directory with write access for this user, or set logging.logdir"
		return result
	}

	result.Status = SeverityPass
	result.Message = "logging to " + c.Resolved
	return result
}

// probeWritable creates and removes a file in dir.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".compchem-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// LogFileCheck inspects the log file itself.
type LogFileCheck struct {
	Path string
	// Enabled is false when the file sink is off.
	Enabled bool
}

var _ Check = (*LogFileCheck)(nil)

// Name returns the unique identifier for this check.
func (c *LogFileCheck) Name() string { return "log-file" }

// Category returns the grouping for this check.
func (c *LogFileCheck) Category() string { return "logging" }

// Run checks the log file is a regular file with conservative permissions.
func (c *LogFileCheck) Run() *CheckResult {
	result := &CheckResult{Details: map[string]any{"path": c.Path}}

	if !c.Enabled {
		result.Status = SeverityInfo
		result.Message = "file logging is off"
		return result
	}

	info, err := os.Stat(c.Path)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityInfo
		result.Message = "log file has not been written yet"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	case !info.Mode().IsRegular():
		result.Status = SeverityError
		result.Message = c.Path + " is not a regular file"
		result.FixHint = "remove it or set logging.fname"
		return result
	}

	perm := info.Mode().Perm()
	result.Details["permissions"] = fmt.Sprintf("%04o", perm)
	result.Details["size"] = info.Size()
	if perm&^maxLogFilePerm != 0 {
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("log file permissions %04o are wider than %04o", perm, maxLogFilePerm)
		result.FixHint = fmt.Sprintf("chmod %o %s", maxLogFilePerm, c.Path)
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%s (%d bytes)", c.Path, info.Size())
	return result
}

// ConfigCheck reports which config file was loaded.
type ConfigCheck struct {
	// Used is the config file read, or "" when defaults applied.
	Used string
}

var _ Check = (*ConfigCheck)(nil)

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "config-file" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run reports the config source.
func (c *ConfigCheck) Run() *CheckResult {
	if c.Used == "" {
		return &CheckResult{
			Status:  SeverityInfo,
			Message: "no config file found, using defaults",
			FixHint: "run: compchem config init",
		}
	}
	return &CheckResult{
		Status:  SeverityPass,
		Message: "loaded " + c.Used,
		Details: map[string]any{"path": c.Used},
	}
}

// PlatformCheck reports whether the platform has a default log directory.
type PlatformCheck struct {
	// GOOS defaults to runtime.GOOS.
	GOOS string
}

var _ Check = (*PlatformCheck)(nil)

// Name returns the unique identifier for this check.
func (c *PlatformCheck) Name() string { return "platform-log-dir" }

// Category returns the grouping for this check.
func (c *PlatformCheck) Category() string { return "platform" }

// Run looks up the default log directory for the platform.
func (c *PlatformCheck) Run() *CheckResult {
	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	dir, ok := paths.LogDirFor(goos)
	if !ok {
		return &CheckResult{
			Status:  SeverityInfo,
			Message: fmt.Sprintf("no default log directory for %s, the working directory is used", goos),
		}
	}
	return &CheckResult{
		Status:  SeverityPass,
		Message: fmt.Sprintf("default log directory for %s is %s", goos, dir),
	}
}
