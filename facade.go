package vfskit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSchemeExists is returned when registering a scheme twice.
	ErrSchemeExists = errors.New("scheme already registered")
	// ErrNilBackend is returned when registering a nil backend.
	ErrNilBackend = errors.New("backend cannot be nil")
)

// Dispatcher is the single entry point of the virtual filesystem. Given a
// scheme-tagged path it selects the backend whose scheme matches, forwards
// the call, and normalizes backend-specific errors into the shared taxonomy.
// Every ChangeEvent surfaced by a registered backend is forwarded unmodified
// into the dispatcher's notification batcher.
//
// The dispatcher holds no filesystem state of its own beyond wiring.
type Dispatcher struct {
	mu       sync.RWMutex
	backends map[string]Backend
	unsubs   map[string]func()
	batcher  *Batcher
	log      zerolog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDebounceWindow overrides the dispatcher batcher's debounce window.
func WithDebounceWindow(window time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.batcher = NewBatcher(window)
	}
}

// NewDispatcher creates a dispatcher with no backends registered.
func NewDispatcher(options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		backends: make(map[string]Backend),
		unsubs:   make(map[string]func()),
		batcher:  NewBatcher(DefaultDebounceWindow),
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Register attaches a backend under the given scheme.
func (d *Dispatcher) Register(scheme string, b Backend) error {
	if b == nil {
		return ErrNilBackend
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.backends[scheme]; exists {
		return fmt.Errorf("%w: %s", ErrSchemeExists, scheme)
	}
	d.backends[scheme] = b
	// Forward backend batches event-by-event into the dispatcher batcher so
	// subscribers see one stream across all backends.
	d.unsubs[scheme] = b.SubscribeChanges(func(events []ChangeEvent) {
		tagged := make([]ChangeEvent, len(events))
		for i, ev := range events {
			tagged[i] = ChangeEvent{Kind: ev.Kind, Path: URI{Scheme: scheme, Path: ev.Path}.String()}
		}
		d.batcher.Add(tagged...)
	})

	d.log.Debug().Str("scheme", scheme).Msg("registered backend")
	return nil
}

// Deregister removes the backend for a scheme and stops forwarding its
// events.
func (d *Dispatcher) Deregister(scheme string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.backends[scheme]; !exists {
		return fmt.Errorf("%w: no backend for scheme %s", ErrUnavailable, scheme)
	}
	d.unsubs[scheme]()
	delete(d.unsubs, scheme)
	delete(d.backends, scheme)
	return nil
}

// Schemes returns all registered schemes.
func (d *Dispatcher) Schemes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	schemes := make([]string, 0, len(d.backends))
	for s := range d.backends {
		schemes = append(schemes, s)
	}
	return schemes
}

// SubscribeChanges registers fn to receive debounced batches of change
// events across every registered backend. Event paths are scheme-tagged
// URIs.
func (d *Dispatcher) SubscribeChanges(fn func([]ChangeEvent)) (unsubscribe func()) {
	return d.batcher.Subscribe(fn)
}

// Close flushes pending notifications and detaches from all backends.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	for scheme, unsub := range d.unsubs {
		unsub()
		delete(d.unsubs, scheme)
	}
	d.mu.Unlock()
	d.batcher.Close()
}

// resolve parses a scheme-tagged path and selects the matching backend.
func (d *Dispatcher) resolve(uri string) (Backend, string, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, "", err
	}

	d.mu.RLock()
	b, exists := d.backends[u.Scheme]
	d.mu.RUnlock()

	if !exists {
		return nil, "", &PathError{Op: "resolve", Path: uri, Err: fmt.Errorf("%w: no backend for scheme %q", ErrUnavailable, u.Scheme)}
	}
	return b, u.Path, nil
}

// ============================================================================
// Backend operations, scheme-routed
// ============================================================================

// Stat returns metadata for the entry at the scheme-tagged path.
func (d *Dispatcher) Stat(ctx context.Context, uri string) (*FileStat, error) {
	b, p, err := d.resolve(uri)
	if err != nil {
		return nil, err
	}
	stat, err := b.Stat(ctx, p)
	return stat, normalizeError("stat", uri, err)
}

// ReadDirectory lists the immediate children of the directory at the
// scheme-tagged path.
func (d *Dispatcher) ReadDirectory(ctx context.Context, uri string) ([]DirEntry, error) {
	b, p, err := d.resolve(uri)
	if err != nil {
		return nil, err
	}
	entries, err := b.ReadDirectory(ctx, p)
	return entries, normalizeError("readdir", uri, err)
}

// ReadFile returns the content of the file at the scheme-tagged path.
func (d *Dispatcher) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	b, p, err := d.resolve(uri)
	if err != nil {
		return nil, err
	}
	data, err := b.ReadFile(ctx, p)
	return data, normalizeError("read", uri, err)
}

// WriteFile writes data to the scheme-tagged path under the contract's
// create/overwrite policy.
func (d *Dispatcher) WriteFile(ctx context.Context, uri string, data []byte, options ...Option) error {
	b, p, err := d.resolve(uri)
	if err != nil {
		return err
	}
	return normalizeError("write", uri, b.WriteFile(ctx, p, data, options...))
}

// Rename moves an entry within a single backend. Both paths must carry the
// same scheme; the move itself is the backend's non-atomic copy+delete
// sequence.
func (d *Dispatcher) Rename(ctx context.Context, oldURI, newURI string, options ...Option) error {
	oldB, oldPath, err := d.resolve(oldURI)
	if err != nil {
		return err
	}
	newB, newPath, err := d.resolve(newURI)
	if err != nil {
		return err
	}
	if oldB != newB {
		return &PathError{Op: "rename", Path: oldURI, Err: fmt.Errorf("%w: rename across schemes", ErrNotSupported)}
	}
	return normalizeError("rename", oldURI, oldB.Rename(ctx, oldPath, newPath, options...))
}

// Delete removes the entry at the scheme-tagged path.
func (d *Dispatcher) Delete(ctx context.Context, uri string, options ...Option) error {
	b, p, err := d.resolve(uri)
	if err != nil {
		return err
	}
	return normalizeError("delete", uri, b.Delete(ctx, p, options...))
}

// CreateDirectory creates the directory at the scheme-tagged path together
// with any missing ancestors.
func (d *Dispatcher) CreateDirectory(ctx context.Context, uri string) error {
	b, p, err := d.resolve(uri)
	if err != nil {
		return err
	}
	return normalizeError("mkdir", uri, b.CreateDirectory(ctx, p))
}

// Checksum delegates to the backend when it supports integrity checks.
func (d *Dispatcher) Checksum(ctx context.Context, uri string, algorithm ChecksumAlgorithm) (string, error) {
	b, p, err := d.resolve(uri)
	if err != nil {
		return "", err
	}
	cs, ok := b.(Checksummer)
	if !ok {
		return "", &PathError{Op: "checksum", Path: uri, Err: ErrNotSupported}
	}
	sum, err := cs.Checksum(ctx, p, algorithm)
	return sum, normalizeError("checksum", uri, err)
}

// ============================================================================
// Error normalization
// ============================================================================

// normalizeError maps any backend failure into the shared taxonomy wrapped
// in a *PathError. Errors already carrying a taxonomy sentinel pass through;
// os-level errors are translated; everything else becomes ErrUnknown.
func normalizeError(op, uri string, err error) error {
	if err == nil {
		return nil
	}

	var pe *PathError
	if errors.As(err, &pe) && isTaxonomy(pe.Err) {
		return err
	}
	if isTaxonomy(err) {
		return &PathError{Op: op, Path: uri, Err: err}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		err = fmt.Errorf("%w: %v", ErrExists, err)
	case errors.Is(err, fs.ErrPermission):
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Cancellation is the caller's doing, not a backend failure.
	default:
		err = fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	return &PathError{Op: op, Path: uri, Err: err}
}

// isTaxonomy reports whether err already wraps one of the shared sentinels.
func isTaxonomy(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrExists, ErrIsDir, ErrNotDir, ErrNotEmpty,
		ErrUnavailable, ErrUnknown, ErrNotSupported, ErrInvalidPath, ErrNoSpace,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
