package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/riichi-tools/mjview/internal/decoder"
)

// DefaultPattern matches the files the game client writes.
const DefaultPattern = "*.json.gz"

// ResolutionError reports a bad input specification. There is nothing
// to process, so it aborts the run.
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Spec describes what to process: a single compressed log file, or a
// directory scanned with Pattern. Limit > 0 caps the number of files.
type Spec struct {
	Input   string
	Pattern string
	Limit   int
}

// Resolve expands the spec into the ordered list of input files.
// Directory matches are sorted lexicographically by base name so runs
// are deterministic and Limit always selects the same prefix. Each call
// re-enumerates the directory.
func Resolve(spec Spec) ([]string, error) {
	info, err := os.Stat(spec.Input)
	if err != nil {
		return nil, &ResolutionError{Path: spec.Input, Err: err}
	}

	if !info.IsDir() {
		if !decoder.IsCompressed(spec.Input) {
			return nil, &ResolutionError{Path: spec.Input, Err: fmt.Errorf("not a recognized compressed log file")}
		}
		return []string{spec.Input}, nil
	}

	pattern := spec.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	// Only ever touch compressed files in directory mode, matching the
	// single-file check above.
	if !decoder.IsCompressed(pattern) {
		return nil, &ResolutionError{Path: spec.Input, Err: fmt.Errorf("pattern %q does not end in a compressed-log extension", pattern)}
	}

	matches, err := filepath.Glob(filepath.Join(spec.Input, pattern))
	if err != nil {
		return nil, &ResolutionError{Path: spec.Input, Err: fmt.Errorf("bad pattern %q: %w", pattern, err)}
	}

	sort.Slice(matches, func(i, j int) bool {
		return filepath.Base(matches[i]) < filepath.Base(matches[j])
	})

	if spec.Limit > 0 && spec.Limit < len(matches) {
		matches = matches[:spec.Limit]
	}

	return matches, nil
}
