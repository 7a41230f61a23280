package vfskit

import (
	"context"
	"errors"
)

// ErrReadOnly is returned when a mutation is attempted on a read-only view.
var ErrReadOnly = errors.New("backend is read-only")

// ReadOnlyBackend wraps a Backend to reject every mutation while passing
// reads and change subscriptions through. Useful for handing a backend to
// code that must only observe it, such as search runs over live data.
//
// Mutations fail with a *PathError wrapping both ErrReadOnly and
// ErrUnavailable, so they land in the Unavailable bucket of the taxonomy.
type ReadOnlyBackend struct {
	b Backend
}

// NewReadOnlyBackend creates a read-only view over b.
func NewReadOnlyBackend(b Backend) *ReadOnlyBackend {
	return &ReadOnlyBackend{b: b}
}

func (r *ReadOnlyBackend) Stat(ctx context.Context, path string) (*FileStat, error) {
	return r.b.Stat(ctx, path)
}

func (r *ReadOnlyBackend) ReadDirectory(ctx context.Context, path string) ([]DirEntry, error) {
	return r.b.ReadDirectory(ctx, path)
}

func (r *ReadOnlyBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return r.b.ReadFile(ctx, path)
}

func (r *ReadOnlyBackend) WriteFile(ctx context.Context, path string, data []byte, options ...Option) error {
	return r.reject("write", path)
}

func (r *ReadOnlyBackend) Rename(ctx context.Context, oldPath, newPath string, options ...Option) error {
	return r.reject("rename", oldPath)
}

func (r *ReadOnlyBackend) Delete(ctx context.Context, path string, options ...Option) error {
	return r.reject("delete", path)
}

func (r *ReadOnlyBackend) CreateDirectory(ctx context.Context, path string) error {
	return r.reject("mkdir", path)
}

func (r *ReadOnlyBackend) SubscribeChanges(fn func([]ChangeEvent)) (unsubscribe func()) {
	return r.b.SubscribeChanges(fn)
}

// Checksum passes through when the wrapped backend supports it.
func (r *ReadOnlyBackend) Checksum(ctx context.Context, path string, algorithm ChecksumAlgorithm) (string, error) {
	cs, ok := r.b.(Checksummer)
	if !ok {
		return "", &PathError{Op: "checksum", Path: path, Err: ErrNotSupported}
	}
	return cs.Checksum(ctx, path, algorithm)
}

func (r *ReadOnlyBackend) reject(op, path string) error {
	return &PathError{Op: op, Path: path, Err: errors.Join(ErrUnavailable, ErrReadOnly)}
}

var _ Backend = (*ReadOnlyBackend)(nil)
