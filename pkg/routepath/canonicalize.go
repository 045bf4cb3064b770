// Package routepath normalizes navigation paths and joins nested route paths.
package routepath

import (
	"errors"
	"strings"
)

// Result is the outcome of canonicalizing a path.
type Result struct {
	// Path is the canonical path, without query string.
	Path string

	// Query is the query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a navigation path:
//   - a missing leading slash is added
//   - repeated slashes collapse (/perf//cpu → /perf/cpu)
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed, except for "/"
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected. A query string is split off and returned untouched.
func Canonicalize(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	path, query := SplitPathAndQuery(input)

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}

	original := path
	segments := strings.Split(path, "/")
	kept := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(kept) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}

	path = "/" + strings.Join(kept, "/")

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// Clean returns the canonical form of path, dropping any query string.
func Clean(path string) (string, error) {
	res, err := Canonicalize(path)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// IsCanonical reports whether path is already in canonical form.
func IsCanonical(path string) bool {
	res, err := Canonicalize(path)
	return err == nil && !res.Changed && res.Query == ""
}

// Join resolves a child route path against its parent.
// Absolute children ("/x") stand on their own, "" is the parent itself and
// relative children are appended below the parent.
func Join(parent, child string) (string, error) {
	switch {
	case strings.HasPrefix(child, "/"):
		return Clean(child)
	case child == "":
		return Clean(parent)
	default:
		return Clean(strings.TrimSuffix(parent, "/") + "/" + child)
	}
}

// ValidateNavPath canonicalizes a path handed in by a client and rejects
// anything that is not a site-relative path, such as full URLs.
func ValidateNavPath(path string) (string, error) {
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}
	return Clean(path)
}

// SplitPathAndQuery splits input into path and query; the query has no "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); {
		if path[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 3
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
