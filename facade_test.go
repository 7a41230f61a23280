package vfskit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gobeaver/vfskit"
	"github.com/gobeaver/vfskit/driver/memory"
)

func newTestDispatcher(t *testing.T) (*vfskit.Dispatcher, *memory.Adapter) {
	t.Helper()
	d := vfskit.NewDispatcher(vfskit.WithDebounceWindow(10 * time.Millisecond))
	mem := memory.New(memory.Config{DebounceWindow: 5 * time.Millisecond})
	if err := d.Register("memory", mem); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	t.Cleanup(func() {
		d.Close()
		mem.Close()
	})
	return d, mem
}

func TestDispatcherRouting(t *testing.T) {
	ctx := context.Background()

	t.Run("write and read through scheme-tagged paths", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		if err := d.WriteFile(ctx, "memory:///notes.txt", []byte("hello"), vfskit.WithCreate(true)); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		data, err := d.ReadFile(ctx, "memory:///notes.txt")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("ReadFile() = %q, want hello", data)
		}

		stat, err := d.Stat(ctx, "memory:///notes.txt")
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if stat.Kind != vfskit.KindFile || stat.Size != 5 {
			t.Errorf("Stat() = %+v, want file of size 5", stat)
		}
	})

	t.Run("unknown scheme is unavailable, not missing", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		_, err := d.Stat(ctx, "gopher:///notes.txt")
		if !vfskit.IsUnavailable(err) {
			t.Errorf("Stat() error = %v, want unavailable", err)
		}
		if vfskit.IsNotFound(err) {
			t.Errorf("unknown scheme must not report not found: %v", err)
		}
	})

	t.Run("malformed path is rejected", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		if _, err := d.Stat(ctx, "/no/scheme"); !errors.Is(err, vfskit.ErrInvalidPath) {
			t.Errorf("Stat() error = %v, want invalid path", err)
		}
	})

	t.Run("duplicate scheme registration fails", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		if err := d.Register("memory", memory.New()); !errors.Is(err, vfskit.ErrSchemeExists) {
			t.Errorf("Register() error = %v, want scheme exists", err)
		}
		if err := d.Register("empty", nil); !errors.Is(err, vfskit.ErrNilBackend) {
			t.Errorf("Register(nil) error = %v, want nil backend", err)
		}
	})

	t.Run("cross-scheme rename is refused", func(t *testing.T) {
		d, _ := newTestDispatcher(t)
		other := memory.New()
		if err := d.Register("scratch", other); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		defer other.Close()

		if err := d.WriteFile(ctx, "memory:///a.txt", []byte("x"), vfskit.WithCreate(true)); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		err := d.Rename(ctx, "memory:///a.txt", "scratch:///a.txt")
		if !errors.Is(err, vfskit.ErrNotSupported) {
			t.Errorf("Rename() error = %v, want not supported", err)
		}
	})

	t.Run("deregistered scheme stops resolving", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		if err := d.Deregister("memory"); err != nil {
			t.Fatalf("Deregister() error = %v", err)
		}
		if _, err := d.Stat(ctx, "memory:///x"); !vfskit.IsUnavailable(err) {
			t.Errorf("Stat() after deregister error = %v, want unavailable", err)
		}
	})
}

func TestDispatcherErrorNormalization(t *testing.T) {
	ctx := context.Background()

	t.Run("backend sentinels pass through", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		_, err := d.ReadFile(ctx, "memory:///missing.txt")
		if !vfskit.IsNotFound(err) {
			t.Errorf("ReadFile() error = %v, want not found", err)
		}
		var pe *vfskit.PathError
		if !errors.As(err, &pe) {
			t.Fatalf("ReadFile() error = %T, want *PathError", err)
		}

		if err := d.CreateDirectory(ctx, "memory:///d"); err != nil {
			t.Fatalf("CreateDirectory() error = %v", err)
		}
		if _, err := d.ReadFile(ctx, "memory:///d"); !vfskit.IsIsDir(err) {
			t.Errorf("ReadFile(dir) error = %v, want is-a-directory", err)
		}
	})

	t.Run("foreign errors collapse to unknown", func(t *testing.T) {
		d := vfskit.NewDispatcher()
		defer d.Close()
		fb := &failingBackend{err: errors.New("disk on fire")}
		if err := d.Register("flaky", fb); err != nil {
			t.Fatalf("Register() error = %v", err)
		}

		_, err := d.Stat(ctx, "flaky:///x")
		if !errors.Is(err, vfskit.ErrUnknown) {
			t.Errorf("Stat() error = %v, want unknown", err)
		}
	})

	t.Run("cancellation is not wrapped as unknown", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := d.Stat(cancelled, "memory:///x")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Stat() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, vfskit.ErrUnknown) {
			t.Errorf("cancellation must not map to unknown: %v", err)
		}
	})
}

func TestDispatcherNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("backend events surface as scheme-tagged batches", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		var mu sync.Mutex
		var events []vfskit.ChangeEvent
		d.SubscribeChanges(func(batch []vfskit.ChangeEvent) {
			mu.Lock()
			events = append(events, batch...)
			mu.Unlock()
		})

		if err := d.WriteFile(ctx, "memory:///a.txt", []byte("x"), vfskit.WithCreate(true)); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		time.Sleep(100 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d: %v", len(events), events)
		}
		want := []vfskit.ChangeEvent{
			{Kind: vfskit.Created, Path: "memory:///a.txt"},
			{Kind: vfskit.Changed, Path: "memory:///a.txt"},
			{Kind: vfskit.Changed, Path: "memory:///"},
		}
		for i, ev := range want {
			if events[i] != ev {
				t.Errorf("event[%d] = %v, want %v", i, events[i], ev)
			}
		}
	})

	t.Run("burst of writes collapses into one batch", func(t *testing.T) {
		d, _ := newTestDispatcher(t)

		var mu sync.Mutex
		var batches int
		var total int
		d.SubscribeChanges(func(batch []vfskit.ChangeEvent) {
			mu.Lock()
			batches++
			total += len(batch)
			mu.Unlock()
		})

		for i := 0; i < 5; i++ {
			if err := d.WriteFile(ctx, "memory:///b.txt", []byte("x"), vfskit.WithCreate(true), vfskit.WithOverwrite(true)); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		}
		time.Sleep(150 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if batches != 1 {
			t.Errorf("expected 1 batch, got %d", batches)
		}
		// First write emits three events, each overwrite one.
		if total != 7 {
			t.Errorf("expected 7 events across batches, got %d", total)
		}
	})
}

func TestDispatcherChecksum(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDispatcher(t)

	if err := d.WriteFile(ctx, "memory:///sum.txt", []byte("hello"), vfskit.WithCreate(true)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	sum, err := d.Checksum(ctx, "memory:///sum.txt", vfskit.ChecksumSHA256)
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	want, err := vfskit.ChecksumBytes([]byte("hello"), vfskit.ChecksumSHA256)
	if err != nil {
		t.Fatalf("ChecksumBytes() error = %v", err)
	}
	if sum != want {
		t.Errorf("Checksum() = %s, want %s", sum, want)
	}
}

// failingBackend fails every operation with a fixed error.
type failingBackend struct {
	err error
}

func (f *failingBackend) Stat(context.Context, string) (*vfskit.FileStat, error) {
	return nil, f.err
}
func (f *failingBackend) ReadDirectory(context.Context, string) ([]vfskit.DirEntry, error) {
	return nil, f.err
}
func (f *failingBackend) ReadFile(context.Context, string) ([]byte, error) { return nil, f.err }
func (f *failingBackend) WriteFile(context.Context, string, []byte, ...vfskit.Option) error {
	return f.err
}
func (f *failingBackend) Rename(context.Context, string, string, ...vfskit.Option) error {
	return f.err
}
func (f *failingBackend) Delete(context.Context, string, ...vfskit.Option) error { return f.err }
func (f *failingBackend) CreateDirectory(context.Context, string) error          { return f.err }
func (f *failingBackend) SubscribeChanges(func([]vfskit.ChangeEvent)) func()     { return func() {} }

var _ vfskit.Backend = (*failingBackend)(nil)
