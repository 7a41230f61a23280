// Package memory provides a self-contained in-memory backend implementing
// vfskit.Backend. It is byte-exact (no encoding transformation on write or
// read) and emits the full change-event sequence the contract specifies,
// which makes it the reference backend for tests and scratch storage.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/vfskit"
)

// memoryFile is a regular file held entirely in memory.
type memoryFile struct {
	content  []byte
	created  time.Time
	modified time.Time
}

// memoryDir carries directory metadata; children are derived from the path
// maps.
type memoryDir struct {
	created  time.Time
	modified time.Time
}

// Adapter provides an in-memory implementation of vfskit.Backend.
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memoryFile
	dirs    map[string]*memoryDir
	maxSize int64 // 0 = unlimited
	size    int64

	batcher *vfskit.Batcher
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64

	// DebounceWindow overrides the change batcher's quiet window.
	DebounceWindow time.Duration
}

// New creates a new in-memory backend.
func New(cfg ...Config) *Adapter {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}

	a := &Adapter{
		files:   make(map[string]*memoryFile),
		dirs:    make(map[string]*memoryDir),
		maxSize: c.MaxSize,
		batcher: vfskit.NewBatcher(c.DebounceWindow),
	}

	now := time.Now()
	a.dirs["/"] = &memoryDir{created: now, modified: now}

	return a
}

// Stat implements vfskit.Backend. Directory size is the entry count.
func (a *Adapter) Stat(ctx context.Context, path string) (*vfskit.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = vfskit.NormalizePath(path)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[path]; exists {
		return &vfskit.FileStat{
			Kind:       vfskit.KindFile,
			Size:       int64(len(file.content)),
			CreatedAt:  file.created,
			ModifiedAt: file.modified,
		}, nil
	}
	if dir, exists := a.dirs[path]; exists {
		return &vfskit.FileStat{
			Kind:       vfskit.KindDirectory,
			Size:       int64(len(a.childNames(path))),
			CreatedAt:  dir.created,
			ModifiedAt: dir.modified,
		}, nil
	}
	return nil, &vfskit.PathError{Op: "stat", Path: path, Err: vfskit.ErrNotFound}
}

// ReadDirectory implements vfskit.Backend.
func (a *Adapter) ReadDirectory(ctx context.Context, path string) ([]vfskit.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = vfskit.NormalizePath(path)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, exists := a.dirs[path]; !exists {
		return nil, &vfskit.PathError{Op: "readdir", Path: path, Err: vfskit.ErrNotFound}
	}

	names := a.childNames(path)
	sort.Strings(names)

	entries := make([]vfskit.DirEntry, 0, len(names))
	for _, name := range names {
		kind := vfskit.KindFile
		if _, isDir := a.dirs[vfskit.JoinPath(path, name)]; isDir {
			kind = vfskit.KindDirectory
		}
		entries = append(entries, vfskit.DirEntry{Name: name, Kind: kind})
	}
	return entries, nil
}

// ReadFile implements vfskit.Backend. The returned slice is a copy.
func (a *Adapter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = vfskit.NormalizePath(path)

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[path]
	if !exists {
		if _, isDir := a.dirs[path]; isDir {
			return nil, &vfskit.PathError{Op: "read", Path: path, Err: vfskit.ErrIsDir}
		}
		return nil, &vfskit.PathError{Op: "read", Path: path, Err: vfskit.ErrNotFound}
	}

	out := make([]byte, len(file.content))
	copy(out, file.content)
	return out, nil
}

// WriteFile implements vfskit.Backend under the contract's create/overwrite
// policy. The parent directory must already exist.
func (a *Adapter) WriteFile(ctx context.Context, path string, data []byte, options ...vfskit.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = vfskit.NormalizePath(path)
	opts := vfskit.ApplyOptions(options...)

	a.mu.Lock()

	if _, isDir := a.dirs[path]; isDir {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrIsDir}
	}

	existing, exists := a.files[path]
	if !exists && !opts.Create {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrNotFound}
	}
	if exists && opts.Create && !opts.Overwrite {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrExists}
	}

	parent := vfskit.ParentPath(path)
	if _, parentExists := a.dirs[parent]; !parentExists {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrNotFound}
	}

	newSize := a.size + int64(len(data))
	if exists {
		newSize -= int64(len(existing.content))
	}
	if a.maxSize > 0 && newSize > a.maxSize {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrNoSpace}
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	now := time.Now()
	if exists {
		existing.content = stored
		existing.modified = now
	} else {
		a.files[path] = &memoryFile{content: stored, created: now, modified: now}
	}
	a.size = newSize
	a.mu.Unlock()

	if exists {
		a.batcher.Add(vfskit.ChangeEvent{Kind: vfskit.Changed, Path: path})
	} else {
		a.batcher.Add(
			vfskit.ChangeEvent{Kind: vfskit.Created, Path: path},
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: path},
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: parent},
		)
	}
	return nil
}

// Rename implements vfskit.Backend as the contract's mkdir-all + copy +
// delete sequence. It is not atomic: a failure between the copy and the
// delete leaves both paths populated.
func (a *Adapter) Rename(ctx context.Context, oldPath, newPath string, options ...vfskit.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oldPath = vfskit.NormalizePath(oldPath)
	newPath = vfskit.NormalizePath(newPath)
	opts := vfskit.ApplyOptions(options...)

	a.mu.RLock()
	_, newIsFile := a.files[newPath]
	_, newIsDir := a.dirs[newPath]
	a.mu.RUnlock()

	newExists := newIsFile || newIsDir
	if newExists && !opts.Overwrite {
		return &vfskit.PathError{Op: "rename", Path: newPath, Err: vfskit.ErrExists}
	}

	// Renaming a path onto itself must not run the copy+delete sequence,
	// which would destroy the entry.
	if oldPath == newPath {
		if !newExists {
			return &vfskit.PathError{Op: "rename", Path: oldPath, Err: vfskit.ErrNotFound}
		}
		return nil
	}

	if err := a.CreateDirectory(ctx, vfskit.ParentPath(newPath)); err != nil {
		return err
	}

	data, err := a.ReadFile(ctx, oldPath)
	if err != nil {
		return err
	}
	if err := a.WriteFile(ctx, newPath, data, vfskit.WithCreate(true), vfskit.WithOverwrite(true)); err != nil {
		return err
	}
	return a.Delete(ctx, oldPath, vfskit.WithRecursive(false))
}

// Delete implements vfskit.Backend. A directory is always removed together
// with its contents, leaves before parents, each removal emitting its own
// Deleted event; the in-memory store has no native non-recursive directory
// removal, so the Recursive option is accepted but not required.
func (a *Adapter) Delete(ctx context.Context, path string, options ...vfskit.Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = vfskit.NormalizePath(path)

	a.mu.Lock()

	if file, exists := a.files[path]; exists {
		a.size -= int64(len(file.content))
		delete(a.files, path)
		a.mu.Unlock()
		a.batcher.Add(
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: vfskit.ParentPath(path)},
			vfskit.ChangeEvent{Kind: vfskit.Deleted, Path: path},
		)
		return nil
	}

	if _, exists := a.dirs[path]; !exists {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "delete", Path: path, Err: vfskit.ErrNotFound}
	}
	if path == "/" {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "delete", Path: path, Err: vfskit.ErrNotSupported}
	}

	prefix := path + "/"

	// Collect descendants, deepest first so leaves go before their parent.
	var doomed []string
	for p := range a.files {
		if strings.HasPrefix(p, prefix) {
			doomed = append(doomed, p)
		}
	}
	for p := range a.dirs {
		if strings.HasPrefix(p, prefix) {
			doomed = append(doomed, p)
		}
	}
	sort.Slice(doomed, func(i, j int) bool {
		return len(vfskit.SplitPath(doomed[i])) > len(vfskit.SplitPath(doomed[j]))
	})

	var events []vfskit.ChangeEvent
	for _, p := range doomed {
		if file, ok := a.files[p]; ok {
			a.size -= int64(len(file.content))
			delete(a.files, p)
		} else {
			delete(a.dirs, p)
		}
		events = append(events, vfskit.ChangeEvent{Kind: vfskit.Deleted, Path: p})
	}
	delete(a.dirs, path)
	events = append(events,
		vfskit.ChangeEvent{Kind: vfskit.Changed, Path: vfskit.ParentPath(path)},
		vfskit.ChangeEvent{Kind: vfskit.Deleted, Path: path},
	)
	a.mu.Unlock()

	a.batcher.Add(events...)
	return nil
}

// CreateDirectory implements vfskit.Backend: idempotent create-all-the-way-
// down. Each directory actually created emits Changed on its parent and
// Created on itself; already-existing directories are a no-op.
func (a *Adapter) CreateDirectory(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = vfskit.NormalizePath(path)

	a.mu.Lock()

	if _, isFile := a.files[path]; isFile {
		a.mu.Unlock()
		return &vfskit.PathError{Op: "mkdir", Path: path, Err: vfskit.ErrExists}
	}

	var events []vfskit.ChangeEvent
	now := time.Now()
	components := vfskit.SplitPath(path)
	current := "/"
	for _, component := range components {
		current = vfskit.JoinPath(current, component)
		if _, isFile := a.files[current]; isFile {
			a.mu.Unlock()
			return &vfskit.PathError{Op: "mkdir", Path: current, Err: vfskit.ErrExists}
		}
		if _, exists := a.dirs[current]; exists {
			continue
		}
		a.dirs[current] = &memoryDir{created: now, modified: now}
		events = append(events,
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: vfskit.ParentPath(current)},
			vfskit.ChangeEvent{Kind: vfskit.Created, Path: current},
		)
	}
	a.mu.Unlock()

	a.batcher.Add(events...)
	return nil
}

// SubscribeChanges implements vfskit.Backend.
func (a *Adapter) SubscribeChanges(fn func([]vfskit.ChangeEvent)) (unsubscribe func()) {
	return a.batcher.Subscribe(fn)
}

// Checksum implements vfskit.Checksummer.
func (a *Adapter) Checksum(ctx context.Context, path string, algorithm vfskit.ChecksumAlgorithm) (string, error) {
	data, err := a.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	sum, err := vfskit.ChecksumBytes(data, algorithm)
	if err != nil {
		return "", &vfskit.PathError{Op: "checksum", Path: path, Err: err}
	}
	return sum, nil
}

// Size returns the current total size of all stored files
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// FileCount returns the number of files stored
func (a *Adapter) FileCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

// Close flushes any pending change notifications.
func (a *Adapter) Close() {
	a.batcher.Close()
}

// childNames returns the names of path's immediate children.
// Must be called with at least a read lock held.
func (a *Adapter) childNames(path string) []string {
	prefix := path
	if prefix != "/" {
		prefix += "/"
	}

	seen := make(map[string]bool)
	collect := func(p string) {
		if p == path || !strings.HasPrefix(p, prefix) {
			return
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, _ := strings.Cut(rest, "/")
		if name != "" {
			seen[name] = true
		}
	}
	for p := range a.files {
		collect(p)
	}
	for p := range a.dirs {
		collect(p)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

// Ensure Adapter implements interfaces
var (
	_ vfskit.Backend     = (*Adapter)(nil)
	_ vfskit.Checksummer = (*Adapter)(nil)
)
