package hierarchy

import (
	"fmt"
	"strings"
)

// Canonicalize normalizes a raw object path into its canonical form:
// a leading "/" is added if missing, a trailing "/" is stripped.
// Returns ErrInvalidPath if the path is empty, is the bare root "/",
// or contains empty segments ("//").
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSuffix(raw, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, raw)
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	for _, seg := range strings.Split(trimmed[1:], "/") {
		if seg == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, raw)
		}
	}
	return trimmed, nil
}

// Ancestors returns the ancestor chain of a canonical path, ordered from the
// most general ancestor to the path itself, inclusive.
// Ancestors("/a/b/c") returns ["/a", "/a/b", "/a/b/c"].
func Ancestors(path string) []string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	chain := make([]string, 0, len(segments))
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(seg)
		chain = append(chain, b.String())
	}
	return chain
}

// IsAncestor reports whether parent is a strict ancestor of child.
// Both paths must be canonical. A path is never its own ancestor.
func IsAncestor(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	return strings.HasPrefix(child, parent) && child[len(parent)] == '/'
}

// Depth returns the number of segments in a canonical path.
func Depth(path string) int {
	return strings.Count(path, "/")
}
