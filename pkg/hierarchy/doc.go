// Package hierarchy provides canonicalization and ancestor resolution for
// slash-delimited object paths.
//
// A canonical path starts with "/", contains no empty segments and carries
// no trailing separator. All other packages operate on canonical paths only;
// raw input must pass through Canonicalize first.
//
// Example:
//
//	path, err := hierarchy.Canonicalize("projects/alpha/tasks/1/")
//	// path == "/projects/alpha/tasks/1"
//
//	chain := hierarchy.Ancestors(path)
//	// ["/projects", "/projects/alpha", "/projects/alpha/tasks", "/projects/alpha/tasks/1"]
package hierarchy
