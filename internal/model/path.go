package model

import (
	"strings"
	"unicode/utf8"

	"github.com/halvardk/vaultctl/internal/common"
)

// Path is a slash-separated sequence of name components rooted at "/"
// (§3). Segments are matched case-sensitively against Node.Name values
// under their parent.
type Path struct {
	segments []string
}

// ParsePath validates and splits p on '/'. Empty segments (consecutive or
// trailing slashes, beyond the leading root slash), non-UTF-8 content, and
// embedded NUL bytes are rejected as KindInvalidPath (§4.3).
func ParsePath(p string) (Path, error) {
	if !utf8.ValidString(p) {
		return Path{}, common.Newf(common.KindInvalidPath, "path is not valid UTF-8")
	}
	if strings.ContainsRune(p, 0) {
		return Path{}, common.Newf(common.KindInvalidPath, "path contains a NUL byte")
	}

	trimmed := strings.TrimPrefix(p, "/")
	if trimmed == "" {
		return Path{segments: nil}, nil
	}

	parts := strings.Split(trimmed, "/")
	for _, s := range parts {
		if s == "" {
			return Path{}, common.Newf(common.KindInvalidPath, "empty path segment in %q", p)
		}
	}
	return Path{segments: parts}, nil
}

// Segments returns the path's name components in order. The root path
// returns an empty (possibly nil) slice.
func (p Path) Segments() []string { return p.segments }

// IsRoot reports whether the path refers to "/" itself.
func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// String renders the path back to its canonical "/a/b/c" form.
func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	return "/" + strings.Join(p.segments, "/")
}

// Parent returns the path without its final segment, and that final
// segment's name. Calling Parent on the root path returns the root path
// and an empty name.
func (p Path) Parent() (Path, string) {
	if p.IsRoot() {
		return p, ""
	}
	return Path{segments: p.segments[:len(p.segments)-1]}, p.segments[len(p.segments)-1]
}

// Join appends name as a new final segment.
func (p Path) Join(name string) Path {
	segs := make([]string, len(p.segments)+1)
	copy(segs, p.segments)
	segs[len(segs)-1] = name
	return Path{segments: segs}
}
