// Package native provides a host-backed, handle-based backend implementing
// vfskit.Backend. Host directories are attached through the root registry
// and addressed as "/<rootId>/<name>/...", so the backend stays addressable
// across process restarts. Every operation that touches a native handle is
// permission-gated through a Prompter; a denial surfaces as the Unavailable
// condition, never as NotFound.
package native

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gobeaver/vfskit"
)

// Config holds configuration for the native driver.
type Config struct {
	// Registry is the persistent root registry. Required.
	Registry *vfskit.RootRegistry

	// Factory rehydrates persisted handle references. Defaults to
	// OSHandleFactory.
	Factory HandleFactory

	// Prompter gates permission requests. Defaults to DenyAll; callers
	// must opt into granting.
	Prompter Prompter

	// DebounceWindow overrides the change batcher's quiet window.
	DebounceWindow time.Duration

	// Watch enables fsnotify-based observation of attached root
	// directories, so changes made outside this process surface as
	// change events too.
	Watch bool
}

// Driver is the native backend.
type Driver struct {
	registry *vfskit.RootRegistry
	factory  HandleFactory
	prompter Prompter
	batcher  *vfskit.Batcher
	watcher  *rootWatcher
	log      zerolog.Logger
}

// New creates a native backend over the given registry.
func New(cfg Config) (*Driver, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("native: registry is required")
	}
	if cfg.Factory == nil {
		cfg.Factory = OSHandleFactory{}
	}
	if cfg.Prompter == nil {
		cfg.Prompter = DenyAll{}
	}

	d := &Driver{
		registry: cfg.Registry,
		factory:  cfg.Factory,
		prompter: cfg.Prompter,
		batcher:  vfskit.NewBatcher(cfg.DebounceWindow),
		log:      log.With().Str("component", "native").Logger(),
	}

	if cfg.Watch {
		w, err := newRootWatcher(d)
		if err != nil {
			return nil, err
		}
		d.watcher = w
		for _, entry := range cfg.Registry.Entries() {
			if err := w.addRoot(entry); err != nil {
				d.log.Warn().Err(err).Str("root", entry.RootPath()).Msg("cannot watch root")
			}
		}
	}

	return d, nil
}

// Attach registers dir as a new root and returns its virtual root path
// ("/<rootId>/<name>/"). The mapping is persisted by the registry.
func (d *Driver) Attach(dir string) (string, error) {
	handle, err := NewOSDirectoryHandle(dir)
	if err != nil {
		return "", err
	}
	rootPath, err := d.registry.Attach(handle.Name(), handle.Ref())
	if err != nil {
		return "", err
	}
	if d.watcher != nil {
		if entry, _, err := d.registry.Resolve(rootPath); err == nil {
			if err := d.watcher.addRoot(entry); err != nil {
				d.log.Warn().Err(err).Str("root", rootPath).Msg("cannot watch root")
			}
		}
	}
	d.emit(vfskit.ChangeEvent{Kind: vfskit.Created, Path: vfskit.NormalizePath(rootPath)})
	return rootPath, nil
}

// Close stops watching and flushes pending notifications.
func (d *Driver) Close() {
	if d.watcher != nil {
		d.watcher.close()
	}
	d.batcher.Close()
}

// ============================================================================
// Resolution
// ============================================================================

// resolveRoot maps a virtual path onto its registered root handle, gating on
// the requested permission mode. Remaining components are returned for
// drill-down.
func (d *Driver) resolveRoot(ctx context.Context, path string, mode PermissionMode) (DirectoryHandle, []string, error) {
	entry, rest, err := d.registry.Resolve(path)
	if err != nil {
		return nil, nil, err
	}

	granted, err := d.prompter.RequestPermission(ctx, entry.HandleRef, mode)
	if err != nil {
		return nil, nil, &vfskit.PathError{Op: "permission", Path: path, Err: fmt.Errorf("%w: %v", vfskit.ErrUnavailable, err)}
	}
	if !granted {
		return nil, nil, &vfskit.PathError{Op: "permission", Path: path, Err: fmt.Errorf("%w: %s permission denied", vfskit.ErrUnavailable, mode)}
	}

	root, err := d.factory.Resolve(entry.HandleRef)
	if err != nil {
		return nil, nil, &vfskit.PathError{Op: "resolve", Path: path, Err: fmt.Errorf("%w: root handle unavailable", vfskit.ErrUnavailable)}
	}
	return root, rest, nil
}

// drill walks components one directory handle at a time.
func drill(ctx context.Context, root DirectoryHandle, components []string, create bool) (DirectoryHandle, error) {
	current := root
	for _, component := range components {
		next, err := current.Directory(ctx, component, create)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// ============================================================================
// Backend contract
// ============================================================================

// Stat implements vfskit.Backend. The virtual root "/" and the single-
// component id level are synthesized from the registry.
func (d *Driver) Stat(ctx context.Context, path string) (*vfskit.FileStat, error) {
	path = vfskit.NormalizePath(path)
	components := vfskit.SplitPath(path)

	switch len(components) {
	case 0:
		return &vfskit.FileStat{Kind: vfskit.KindDirectory, Size: int64(len(d.registry.ListRoots()))}, nil
	case 1:
		if _, ok := d.registry.Lookup(components[0]); !ok {
			return nil, &vfskit.PathError{Op: "stat", Path: path, Err: vfskit.ErrNotFound}
		}
		return &vfskit.FileStat{Kind: vfskit.KindDirectory, Size: 1}, nil
	}

	root, rest, err := d.resolveRoot(ctx, path, ReadPermission)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return root.Stat(ctx)
	}

	parent, err := drill(ctx, root, rest[:len(rest)-1], false)
	if err != nil {
		return nil, err
	}
	name := rest[len(rest)-1]
	if dir, err := parent.Directory(ctx, name, false); err == nil {
		return dir.Stat(ctx)
	}
	file, err := parent.File(ctx, name)
	if err != nil {
		return nil, err
	}
	return file.Stat(ctx)
}

// ReadDirectory implements vfskit.Backend. Listing the virtual root yields
// one entry per attached root id.
func (d *Driver) ReadDirectory(ctx context.Context, path string) ([]vfskit.DirEntry, error) {
	path = vfskit.NormalizePath(path)
	components := vfskit.SplitPath(path)

	switch len(components) {
	case 0:
		var entries []vfskit.DirEntry
		for _, entry := range d.registry.Entries() {
			entries = append(entries, vfskit.DirEntry{Name: entry.ID, Kind: vfskit.KindDirectory})
		}
		return entries, nil
	case 1:
		entry, ok := d.registry.Lookup(components[0])
		if !ok {
			return nil, &vfskit.PathError{Op: "readdir", Path: path, Err: vfskit.ErrNotFound}
		}
		return []vfskit.DirEntry{{Name: entry.Name, Kind: vfskit.KindDirectory}}, nil
	}

	root, rest, err := d.resolveRoot(ctx, path, ReadPermission)
	if err != nil {
		return nil, err
	}
	dir, err := drill(ctx, root, rest, false)
	if err != nil {
		return nil, err
	}
	return dir.Entries(ctx)
}

// ReadFile implements vfskit.Backend.
func (d *Driver) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path = vfskit.NormalizePath(path)
	root, rest, err := d.resolveRoot(ctx, path, ReadPermission)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, &vfskit.PathError{Op: "read", Path: path, Err: vfskit.ErrIsDir}
	}
	parent, err := drill(ctx, root, rest[:len(rest)-1], false)
	if err != nil {
		return nil, err
	}
	file, err := parent.File(ctx, rest[len(rest)-1])
	if err != nil {
		return nil, err
	}
	return file.Read(ctx)
}

// WriteFile implements vfskit.Backend under the contract's create/overwrite
// policy.
func (d *Driver) WriteFile(ctx context.Context, path string, data []byte, options ...vfskit.Option) error {
	path = vfskit.NormalizePath(path)
	opts := vfskit.ApplyOptions(options...)

	root, rest, err := d.resolveRoot(ctx, path, ReadWritePermission)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrIsDir}
	}
	parent, err := drill(ctx, root, rest[:len(rest)-1], false)
	if err != nil {
		return err
	}

	name := rest[len(rest)-1]
	exists := false
	if dir, err := parent.Directory(ctx, name, false); err == nil && dir != nil {
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrIsDir}
	}
	file, err := parent.File(ctx, name)
	if err != nil {
		return err
	}
	if _, err := file.Stat(ctx); err == nil {
		exists = true
	}

	if !exists && !opts.Create {
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrNotFound}
	}
	if exists && opts.Create && !opts.Overwrite {
		return &vfskit.PathError{Op: "write", Path: path, Err: vfskit.ErrExists}
	}

	if err := file.Write(ctx, data); err != nil {
		return err
	}

	if exists {
		d.emit(vfskit.ChangeEvent{Kind: vfskit.Changed, Path: path})
	} else {
		d.emit(
			vfskit.ChangeEvent{Kind: vfskit.Created, Path: path},
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: path},
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: vfskit.ParentPath(path)},
		)
	}
	return nil
}

// Rename implements vfskit.Backend as the contract's mkdir-all + copy +
// delete sequence. Not atomic: a failure between the copy and the delete
// leaves both paths populated.
func (d *Driver) Rename(ctx context.Context, oldPath, newPath string, options ...vfskit.Option) error {
	oldPath = vfskit.NormalizePath(oldPath)
	newPath = vfskit.NormalizePath(newPath)
	opts := vfskit.ApplyOptions(options...)

	_, statErr := d.Stat(ctx, newPath)
	switch {
	case statErr == nil:
		if !opts.Overwrite {
			return &vfskit.PathError{Op: "rename", Path: newPath, Err: vfskit.ErrExists}
		}
	case !vfskit.IsNotFound(statErr):
		// A failed probe is not an absent destination.
		return statErr
	}

	// Renaming a path onto itself must not run the copy+delete sequence,
	// which would destroy the entry.
	if oldPath == newPath {
		return statErr
	}

	if err := d.CreateDirectory(ctx, vfskit.ParentPath(newPath)); err != nil {
		return err
	}
	data, err := d.ReadFile(ctx, oldPath)
	if err != nil {
		return err
	}
	if err := d.WriteFile(ctx, newPath, data, vfskit.WithCreate(true), vfskit.WithOverwrite(true)); err != nil {
		return err
	}
	return d.Delete(ctx, oldPath)
}

// Delete implements vfskit.Backend. Without WithRecursive the host enforces
// its native policy: deleting a non-empty directory fails ErrNotEmpty.
func (d *Driver) Delete(ctx context.Context, path string, options ...vfskit.Option) error {
	path = vfskit.NormalizePath(path)
	opts := vfskit.ApplyOptions(options...)

	root, rest, err := d.resolveRoot(ctx, path, ReadWritePermission)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return &vfskit.PathError{Op: "delete", Path: path, Err: vfskit.ErrNotSupported}
	}
	parent, err := drill(ctx, root, rest[:len(rest)-1], false)
	if err != nil {
		return err
	}
	if err := parent.Remove(ctx, rest[len(rest)-1], opts.Recursive); err != nil {
		return err
	}

	d.emit(
		vfskit.ChangeEvent{Kind: vfskit.Changed, Path: vfskit.ParentPath(path)},
		vfskit.ChangeEvent{Kind: vfskit.Deleted, Path: path},
	)
	return nil
}

// CreateDirectory implements vfskit.Backend: idempotent create-all-the-way-
// down below the root, emitting a Changed/Created pair per directory
// actually created.
func (d *Driver) CreateDirectory(ctx context.Context, path string) error {
	path = vfskit.NormalizePath(path)

	root, rest, err := d.resolveRoot(ctx, path, ReadWritePermission)
	if err != nil {
		return err
	}

	current := root
	currentPath := vfskit.JoinPath("/", vfskit.SplitPath(path)[0], vfskit.SplitPath(path)[1])
	var events []vfskit.ChangeEvent
	for _, component := range rest {
		existing, err := current.Directory(ctx, component, false)
		childPath := vfskit.JoinPath(currentPath, component)
		if err == nil {
			current = existing
			currentPath = childPath
			continue
		}
		if !vfskit.IsNotFound(err) {
			return err
		}
		created, err := current.Directory(ctx, component, true)
		if err != nil {
			return err
		}
		events = append(events,
			vfskit.ChangeEvent{Kind: vfskit.Changed, Path: currentPath},
			vfskit.ChangeEvent{Kind: vfskit.Created, Path: childPath},
		)
		current = created
		currentPath = childPath
	}

	d.emit(events...)
	return nil
}

// SubscribeChanges implements vfskit.Backend.
func (d *Driver) SubscribeChanges(fn func([]vfskit.ChangeEvent)) (unsubscribe func()) {
	return d.batcher.Subscribe(fn)
}

// Checksum implements vfskit.Checksummer.
func (d *Driver) Checksum(ctx context.Context, path string, algorithm vfskit.ChecksumAlgorithm) (string, error) {
	data, err := d.ReadFile(ctx, path)
	if err != nil {
		return "", err
	}
	sum, err := vfskit.ChecksumBytes(data, algorithm)
	if err != nil {
		return "", &vfskit.PathError{Op: "checksum", Path: path, Err: err}
	}
	return sum, nil
}

func (d *Driver) emit(events ...vfskit.ChangeEvent) {
	d.batcher.Add(events...)
}

// Ensure Driver implements interfaces
var (
	_ vfskit.Backend     = (*Driver)(nil)
	_ vfskit.Checksummer = (*Driver)(nil)
)
