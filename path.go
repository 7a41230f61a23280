package vfskit

import (
	"fmt"
	"path"
	"strings"
)

// NormalizePath cleans p into the canonical virtual path form: absolute,
// slash-separated, no trailing slash except for the root itself.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// SplitPath returns the components of a normalized path. The root path has
// no components.
func SplitPath(p string) []string {
	p = strings.Trim(NormalizePath(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// ParentPath returns the parent of a normalized path. The parent of the root
// is the root.
func ParentPath(p string) string {
	return NormalizePath(path.Dir(NormalizePath(p)))
}

// BasePath returns the final component of a normalized path.
func BasePath(p string) string {
	return path.Base(NormalizePath(p))
}

// JoinPath joins elements onto a normalized base path.
func JoinPath(base string, elem ...string) string {
	return NormalizePath(path.Join(append([]string{NormalizePath(base)}, elem...)...))
}

// ============================================================================
// Scheme-tagged URIs
// ============================================================================

// URI is a scheme-tagged virtual path. Its string form is "scheme:///path";
// the scheme selects a backend, the path addresses an entry inside it.
type URI struct {
	Scheme string
	Path   string
}

// ParseURI parses "scheme:///path" (or "scheme:/path") into a URI. Paths
// with no scheme separator are rejected; components never contain raw
// scheme separators.
func ParseURI(s string) (URI, error) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return URI{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalidPath, s)
	}
	scheme := s[:idx]
	rest := strings.TrimPrefix(s[idx+1:], "//")
	if strings.Contains(scheme, "/") || strings.Contains(rest, ":") {
		return URI{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	return URI{Scheme: scheme, Path: NormalizePath(rest)}, nil
}

// String renders the URI in its canonical "scheme:///path" form.
func (u URI) String() string {
	return u.Scheme + "://" + NormalizePath(u.Path)
}

// Join returns a URI addressing elem below u.
func (u URI) Join(elem ...string) URI {
	return URI{Scheme: u.Scheme, Path: JoinPath(u.Path, elem...)}
}

// Parent returns the URI of u's parent directory.
func (u URI) Parent() URI {
	return URI{Scheme: u.Scheme, Path: ParentPath(u.Path)}
}
