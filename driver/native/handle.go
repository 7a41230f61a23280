package native

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobeaver/vfskit"
)

// PermissionMode scopes a permission request to the operation being
// performed.
type PermissionMode int

const (
	// ReadPermission covers stat, directory listing and file reads.
	ReadPermission PermissionMode = iota
	// ReadWritePermission covers every mutation.
	ReadWritePermission
)

// String returns the mode's lowercase name.
func (m PermissionMode) String() string {
	if m == ReadWritePermission {
		return "readwrite"
	}
	return "read"
}

// ============================================================================
// Handle contract
// ============================================================================

// DirectoryHandle is an opaque capability token for a native directory. The
// token itself never crosses the dispatcher boundary; only path strings and
// operation results do. Traversal happens one component at a time, a child
// handle per step.
type DirectoryHandle interface {
	// Name returns the directory's own name.
	Name() string

	// Ref returns the persistable opaque reference for this handle.
	Ref() string

	// Stat returns metadata for the directory itself. Size is the number
	// of immediate children.
	Stat(ctx context.Context) (*vfskit.FileStat, error)

	// Entries lists the directory's immediate children.
	Entries(ctx context.Context) ([]vfskit.DirEntry, error)

	// Directory returns a handle for the named child directory, creating
	// it when create is set. Fails ErrNotFound when absent and create is
	// unset, ErrNotDir when the child is not a directory.
	Directory(ctx context.Context, name string, create bool) (DirectoryHandle, error)

	// File returns a handle for the named child file. The handle may point
	// at a not-yet-existing file; existence is checked by its operations.
	File(ctx context.Context, name string) (FileHandle, error)

	// Remove deletes the named child. A non-empty child directory fails
	// ErrNotEmpty unless recursive is set.
	Remove(ctx context.Context, name string, recursive bool) error
}

// FileHandle is an opaque capability token for a native file.
type FileHandle interface {
	Name() string
	Stat(ctx context.Context) (*vfskit.FileStat, error)
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// HandleFactory rehydrates a persisted opaque reference into a live
// directory handle.
type HandleFactory interface {
	Resolve(ref string) (DirectoryHandle, error)
}

// ============================================================================
// Permission gating
// ============================================================================

// Prompter decides interactive permission grants for native handles. A
// denial is not an error; it maps to the Unavailable condition, distinct
// from NotFound.
type Prompter interface {
	RequestPermission(ctx context.Context, ref string, mode PermissionMode) (granted bool, err error)
}

// AutoGrant approves every permission request. Used by non-interactive
// callers and tests.
type AutoGrant struct{}

func (AutoGrant) RequestPermission(ctx context.Context, ref string, mode PermissionMode) (bool, error) {
	return true, nil
}

// DenyAll refuses every permission request.
type DenyAll struct{}

func (DenyAll) RequestPermission(ctx context.Context, ref string, mode PermissionMode) (bool, error) {
	return false, nil
}

// ============================================================================
// os-backed handles
// ============================================================================

// OSHandleFactory resolves references that are absolute host paths into
// handles backed by the os package.
type OSHandleFactory struct{}

// Resolve implements HandleFactory. The ref must point at an existing
// directory.
func (OSHandleFactory) Resolve(ref string) (DirectoryHandle, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return nil, translateOSError("resolve", ref, err)
	}
	if !info.IsDir() {
		return nil, &vfskit.PathError{Op: "resolve", Path: ref, Err: vfskit.ErrNotDir}
	}
	return &osDirHandle{path: ref}, nil
}

// NewOSDirectoryHandle returns a handle for an existing host directory.
func NewOSDirectoryHandle(dir string) (DirectoryHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return OSHandleFactory{}.Resolve(abs)
}

type osDirHandle struct {
	path string
}

func (h *osDirHandle) Name() string { return filepath.Base(h.path) }
func (h *osDirHandle) Ref() string  { return h.path }

func (h *osDirHandle) Stat(ctx context.Context) (*vfskit.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(h.path)
	if err != nil {
		return nil, translateOSError("stat", h.path, err)
	}
	entries, err := os.ReadDir(h.path)
	if err != nil {
		return nil, translateOSError("stat", h.path, err)
	}
	stat := statFromFileInfo(info)
	stat.Size = int64(len(entries))
	return stat, nil
}

func (h *osDirHandle) Entries(ctx context.Context) ([]vfskit.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(h.path)
	if err != nil {
		return nil, translateOSError("readdir", h.path, err)
	}
	out := make([]vfskit.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, vfskit.DirEntry{Name: e.Name(), Kind: kindFromMode(e.Type())})
	}
	return out, nil
}

func (h *osDirHandle) Directory(ctx context.Context, name string, create bool) (DirectoryHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	child := filepath.Join(h.path, name)
	info, err := os.Stat(child)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, &vfskit.PathError{Op: "open", Path: child, Err: vfskit.ErrNotDir}
		}
	case errors.Is(err, fs.ErrNotExist) && create:
		if err := os.Mkdir(child, 0o755); err != nil {
			return nil, translateOSError("mkdir", child, err)
		}
	default:
		return nil, translateOSError("open", child, err)
	}
	return &osDirHandle{path: child}, nil
}

func (h *osDirHandle) File(ctx context.Context, name string) (FileHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &osFileHandle{path: filepath.Join(h.path, name)}, nil
}

func (h *osDirHandle) Remove(ctx context.Context, name string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	child := filepath.Join(h.path, name)
	if recursive {
		if _, err := os.Stat(child); err != nil {
			return translateOSError("delete", child, err)
		}
		if err := os.RemoveAll(child); err != nil {
			return translateOSError("delete", child, err)
		}
		return nil
	}
	if err := os.Remove(child); err != nil {
		return translateOSError("delete", child, err)
	}
	return nil
}

type osFileHandle struct {
	path string
}

func (h *osFileHandle) Name() string { return filepath.Base(h.path) }

func (h *osFileHandle) Stat(ctx context.Context) (*vfskit.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(h.path)
	if err != nil {
		return nil, translateOSError("stat", h.path, err)
	}
	return statFromFileInfo(info), nil
}

func (h *osFileHandle) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(h.path)
	if err != nil {
		return nil, translateOSError("read", h.path, err)
	}
	if info.IsDir() {
		return nil, &vfskit.PathError{Op: "read", Path: h.path, Err: vfskit.ErrIsDir}
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, translateOSError("read", h.path, err)
	}
	return data, nil
}

func (h *osFileHandle) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return translateOSError("write", h.path, err)
	}
	return nil
}

// ============================================================================
// os error and metadata translation
// ============================================================================

func translateOSError(op, path string, err error) error {
	var mapped error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		mapped = vfskit.ErrNotFound
	case errors.Is(err, fs.ErrExist):
		mapped = vfskit.ErrExists
	case errors.Is(err, fs.ErrPermission):
		mapped = vfskit.ErrUnavailable
	case isNotEmpty(err):
		mapped = vfskit.ErrNotEmpty
	default:
		mapped = errors.Join(vfskit.ErrUnknown, err)
	}
	return &vfskit.PathError{Op: op, Path: path, Err: mapped}
}

func statFromFileInfo(info os.FileInfo) *vfskit.FileStat {
	stat := &vfskit.FileStat{
		Kind:       kindFromMode(info.Mode()),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		CreatedAt:  info.ModTime(),
	}
	if birth := extractBirthTime(info); birth != nil {
		stat.CreatedAt = *birth
	}
	return stat
}

func kindFromMode(mode fs.FileMode) vfskit.EntryKind {
	switch {
	case mode.IsDir():
		return vfskit.KindDirectory
	case mode&fs.ModeSymlink != 0:
		return vfskit.KindSymbolicLink
	case mode.IsRegular():
		return vfskit.KindFile
	default:
		return vfskit.KindUnknown
	}
}
