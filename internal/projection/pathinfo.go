package projection

import "strings"

// Kind tags how deep a parsed path reaches below its base segment.
type Kind int

const (
	// KindRoot addresses the base segment itself.
	KindRoot Kind = iota
	// KindMain addresses one resource under the base (queues/<name>).
	KindMain
	// KindChild addresses a sub-resource (queues/<name>/<itemId>).
	KindChild
)

// PathInfo is the parsed form of a hierarchical child path. Consumers branch
// on the kind instead of re-splitting strings.
type PathInfo struct {
	kind  Kind
	main  string
	child string
}

// IsRoot reports whether the path addresses the base segment.
func (p PathInfo) IsRoot() bool { return p.kind == KindRoot }

// IsMain reports whether the path addresses a single resource.
func (p PathInfo) IsMain() bool { return p.kind == KindMain }

// IsChild reports whether the path addresses a sub-resource.
func (p PathInfo) IsChild() bool { return p.kind == KindChild }

// Main returns the resource name for main and child paths.
func (p PathInfo) Main() string { return p.main }

// Child returns the sub-resource name for child paths.
func (p PathInfo) Child() string { return p.child }

// ParsePathInfo parses path relative to the base segment. It returns false
// for paths outside base, with empty segments, or deeper than one
// sub-resource.
func ParsePathInfo(base, path string) (PathInfo, bool) {
	base = strings.Trim(base, "/")
	path = strings.Trim(path, "/")
	if path == base {
		return PathInfo{kind: KindRoot}, true
	}

	prefix := base + "/"
	if !strings.HasPrefix(path, prefix) {
		return PathInfo{}, false
	}

	segments := strings.Split(path[len(prefix):], "/")
	switch len(segments) {
	case 1:
		if segments[0] == "" {
			return PathInfo{}, false
		}
		return PathInfo{kind: KindMain, main: segments[0]}, true
	case 2:
		if segments[0] == "" || segments[1] == "" {
			return PathInfo{}, false
		}
		return PathInfo{kind: KindChild, main: segments[0], child: segments[1]}, true
	default:
		return PathInfo{}, false
	}
}
