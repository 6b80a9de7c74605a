package fileutil

import (
	"bytes"
	"io"
	"os"

	"github.com/thoreinstein/compchem/internal/errors"
)

// DefaultReadLimit bounds ReadLimited when no limit is given (4MB).
const DefaultReadLimit = 4 << 20

// ErrFileTooLarge indicates that a file exceeded the read limit.
var ErrFileTooLarge = errors.New("file exceeds read limit")

// ReadLimited reads at most limit bytes of path. A file larger than limit
// fails with ErrFileTooLarge. A limit <= 0 means DefaultReadLimit.
func ReadLimited(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes", path, info.Size())
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s grew past %d bytes", path, limit)
	}
	return data, nil
}

// LastLines returns the final n lines of data without their newlines.
// n <= 0 returns every line.
func LastLines(data []byte, n int) []string {
	data = bytes.TrimRight(data, "\n")
	if len(data) == 0 {
		return nil
	}
	lines := bytes.Split(data, []byte("\n"))
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return out
}
