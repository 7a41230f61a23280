package vfskit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

var rootsBucket = []byte("roots")

// RootEntry maps a generated root id to an opaque native handle reference.
// The reference is meaningful only to the backend that attached it; it never
// crosses the dispatcher boundary.
type RootEntry struct {
	ID        string
	Name      string
	HandleRef string
}

// RootPath returns the virtual path prefix under which the root is
// addressable: "/" + id + "/" + name + "/".
func (e *RootEntry) RootPath() string {
	return "/" + e.ID + "/" + e.Name + "/"
}

// RootRegistry owns the mapping from root id to native handle reference.
// Attached roots are persisted so native backends stay addressable across
// process restarts; all persisted entries are reloaded eagerly on open,
// before any lookup is attempted.
//
// The in-memory map supports lock-free concurrent reads; Attach serializes
// writers.
type RootRegistry struct {
	db       *bolt.DB
	roots    *xsync.Map[string, *RootEntry]
	attachMu sync.Mutex
}

// OpenRootRegistry opens (creating if needed) the registry store at dbPath
// and reloads every persisted root entry into memory.
func OpenRootRegistry(dbPath string) (*RootRegistry, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open root registry: %w", err)
	}

	r := &RootRegistry{
		db:    db,
		roots: xsync.NewMap[string, *RootEntry](),
	}
	if err := r.load(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// load reads all persisted entries wholesale into the in-memory map.
func (r *RootRegistry) load() error {
	return r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			entry, err := parseRootKey(string(k))
			if err != nil {
				log.Warn().Str("key", string(k)).Msg("skipping malformed root registry entry")
				return nil
			}
			entry.HandleRef = string(v)
			r.roots.Store(entry.ID, entry)
			return nil
		})
	})
}

// Attach generates a fresh unique root id for the named handle, persists the
// mapping, and returns the root path. A persistence failure is fatal and
// surfaced to the caller; nothing is kept in memory in that case.
func (r *RootRegistry) Attach(name, handleRef string) (rootPath string, err error) {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()

	entry := &RootEntry{
		// 122 bits of entropy, far above the collision floor
		ID:        uuid.NewString(),
		Name:      name,
		HandleRef: handleRef,
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(rootsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(entry.RootPath()), []byte(entry.HandleRef))
	})
	if err != nil {
		return "", fmt.Errorf("persist root %s: %w", entry.RootPath(), err)
	}

	r.roots.Store(entry.ID, entry)
	log.Debug().Str("root", entry.RootPath()).Msg("attached root")
	return entry.RootPath(), nil
}

// Resolve splits path into its leading rootId/name pair and looks up the
// stored handle reference. It returns the entry plus the remaining path
// components for drill-down. Fails ErrNotFound if no such root is attached.
func (r *RootRegistry) Resolve(path string) (*RootEntry, []string, error) {
	components := SplitPath(path)
	if len(components) < 2 {
		return nil, nil, &PathError{Op: "resolve", Path: path, Err: ErrNotFound}
	}

	entry, ok := r.roots.Load(components[0])
	if !ok || entry.Name != components[1] {
		return nil, nil, &PathError{Op: "resolve", Path: path, Err: ErrNotFound}
	}
	return entry, components[2:], nil
}

// Lookup returns the entry for a bare root id, if attached.
func (r *RootRegistry) Lookup(id string) (*RootEntry, bool) {
	return r.roots.Load(id)
}

// ListRoots returns the root paths of all currently attached roots. Order is
// unspecified.
func (r *RootRegistry) ListRoots() []string {
	var paths []string
	r.roots.Range(func(_ string, entry *RootEntry) bool {
		paths = append(paths, entry.RootPath())
		return true
	})
	return paths
}

// Entries returns all attached root entries. Order is unspecified.
func (r *RootRegistry) Entries() []*RootEntry {
	var entries []*RootEntry
	r.roots.Range(func(_ string, entry *RootEntry) bool {
		entries = append(entries, entry)
		return true
	})
	return entries
}

// Close closes the underlying store.
func (r *RootRegistry) Close() error {
	return r.db.Close()
}

// parseRootKey parses a persisted "/<id>/<name>/" key back into an entry.
func parseRootKey(key string) (*RootEntry, error) {
	components := SplitPath(key)
	if len(components) != 2 {
		return nil, fmt.Errorf("%w: root key %q", ErrInvalidPath, key)
	}
	return &RootEntry{ID: components[0], Name: components[1]}, nil
}
