package vfskit

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every backend. The dispatcher guarantees that any
// failure crossing its boundary wraps exactly one of these sentinels; raw
// backend errors never reach callers.
var (
	ErrNotFound    = errors.New("entry does not exist")
	ErrExists      = errors.New("entry already exists")
	ErrIsDir       = errors.New("is a directory")
	ErrNotDir      = errors.New("not a directory")
	ErrNotEmpty    = errors.New("directory not empty")
	ErrUnavailable = errors.New("backend unavailable or permission denied")
	ErrUnknown     = errors.New("unknown backend failure")

	ErrNotSupported = errors.New("operation not supported")
	ErrInvalidPath  = errors.New("invalid path")
	ErrNoSpace      = errors.New("no space left")
)

// PathError records an error and the operation and virtual path that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether an error indicates that no entry exists at the
// requested path.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsExists reports whether an error indicates that an entry already exists.
func IsExists(err error) bool {
	return errors.Is(err, ErrExists)
}

// IsIsDir reports whether an error indicates a content operation was attempted
// on a directory.
func IsIsDir(err error) bool {
	return errors.Is(err, ErrIsDir)
}

// IsUnavailable reports whether an error indicates the backend is unreachable
// or permission was denied.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
