package vfskit

import (
	"context"
	"time"
)

// EntryKind classifies a filesystem entry.
type EntryKind int

const (
	// KindUnknown is an entry whose type could not be determined.
	KindUnknown EntryKind = iota
	// KindFile is a regular file.
	KindFile
	// KindDirectory is a directory.
	KindDirectory
	// KindSymbolicLink is a symbolic link.
	KindSymbolicLink
)

// String returns the lowercase name of the kind.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymbolicLink:
		return "symlink"
	default:
		return "unknown"
	}
}

// FileStat describes a single filesystem entry.
// For directories Size is the number of immediate children, not a byte size.
type FileStat struct {
	Kind       EntryKind
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string
	Kind EntryKind
}

// ChangeKind classifies a mutation event.
type ChangeKind int

const (
	// Created is emitted when an entry comes into existence.
	Created ChangeKind = iota
	// Changed is emitted when an entry's content or children change.
	Changed
	// Deleted is emitted when an entry is removed.
	Deleted
)

// String returns the lowercase name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// ChangeEvent is a single mutation notification. Events are emitted only
// after the underlying backend operation has completed.
type ChangeEvent struct {
	Kind ChangeKind
	Path string
}

// ============================================================================
// Backend Driver Contract
// ============================================================================

// Backend is the contract every storage engine must implement. Paths are
// normalized absolute slash-separated strings relative to the backend's own
// namespace; the dispatcher strips the scheme before forwarding.
//
// Error semantics are uniform across backends: operations fail with the
// sentinel errors of this package wrapped in *PathError. Multi-step
// operations (Rename, recursive Delete, CreateDirectory) are best-effort
// sequences of primitives, not transactions; their partial-failure behavior
// is documented per method.
type Backend interface {
	// Stat returns metadata for the entry at path.
	// Fails with ErrNotFound if no entry exists.
	Stat(ctx context.Context, path string) (*FileStat, error)

	// ReadDirectory lists the immediate children of the directory at path.
	// Fails with ErrNotFound if path does not name a directory.
	ReadDirectory(ctx context.Context, path string) ([]DirEntry, error)

	// ReadFile returns the full content of the file at path.
	// Fails with ErrNotFound if absent and ErrIsDir if path is a directory.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to path subject to the create/overwrite policy:
	// an existing directory fails ErrIsDir; a missing entry without
	// WithCreate fails ErrNotFound; an existing entry with WithCreate but
	// without WithOverwrite fails ErrExists. A successful write of a new
	// entry emits Created then Changed on path and Changed on its parent;
	// overwriting emits Changed on path only.
	WriteFile(ctx context.Context, path string, data []byte, options ...Option) error

	// Rename moves the entry at oldPath to newPath. Fails ErrExists if
	// newPath exists and WithOverwrite is not set. Missing intermediate
	// directories of newPath are created first, then content is copied and
	// the old entry deleted. The sequence is not atomic: a failure between
	// copy and delete leaves both paths populated.
	Rename(ctx context.Context, oldPath, newPath string, options ...Option) error

	// Delete removes the entry at path. Handling of a non-empty directory
	// without WithRecursive is backend policy; see each driver.
	Delete(ctx context.Context, path string, options ...Option) error

	// CreateDirectory creates the directory at path together with every
	// missing ancestor. Already-existing directories are a no-op. Each
	// directory actually created emits Changed on its parent and Created
	// on itself.
	CreateDirectory(ctx context.Context, path string) error

	// SubscribeChanges registers fn to receive debounced batches of
	// ChangeEvent. The returned function unsubscribes.
	SubscribeChanges(fn func([]ChangeEvent)) (unsubscribe func())
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// Checksummer indicates the backend supports content integrity verification.
// Check with a type assertion:
//
//	if cs, ok := b.(vfskit.Checksummer); ok {
//	    sum, err := cs.Checksum(ctx, "/notes.txt", vfskit.ChecksumXXHash)
//	}
type Checksummer interface {
	// Checksum calculates the checksum of the file at path using the given
	// algorithm and returns it hex-encoded.
	Checksum(ctx context.Context, path string, algorithm ChecksumAlgorithm) (string, error)
}
