package batch

import (
	"path"
	"path/filepath"
)

// Filters holds the include/exclude glob lists applied against a path
// relative to the operation root (§4.5). A file is included iff it matches
// at least one include pattern (or the include list is empty) and matches
// no exclude pattern.
type Filters struct {
	Include []string
	Exclude []string
}

// Match reports whether relPath (slash-separated, relative to the
// operation root) passes the filter. Patterns are matched against both the
// full relative path and the final path component, so a pattern like
// "*.pdf" or "draft_*" behaves the same regardless of directory depth.
func (f Filters) Match(relPath string) bool {
	if len(f.Exclude) > 0 && anyMatch(f.Exclude, relPath) {
		return false
	}
	if len(f.Include) == 0 {
		return true
	}
	return anyMatch(f.Include, relPath)
}

func anyMatch(patterns []string, relPath string) bool {
	base := path.Base(relPath)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
