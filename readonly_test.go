package vfskit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gobeaver/vfskit"
	"github.com/gobeaver/vfskit/driver/memory"
)

func TestReadOnlyBackend(t *testing.T) {
	ctx := context.Background()

	mem := memory.New()
	defer mem.Close()
	if err := mem.WriteFile(ctx, "/f.txt", []byte("data"), vfskit.WithCreate(true)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	ro := vfskit.NewReadOnlyBackend(mem)

	t.Run("reads pass through", func(t *testing.T) {
		data, err := ro.ReadFile(ctx, "/f.txt")
		if err != nil || string(data) != "data" {
			t.Errorf("ReadFile() = %q, %v", data, err)
		}
		if _, err := ro.Stat(ctx, "/f.txt"); err != nil {
			t.Errorf("Stat() error = %v", err)
		}
		if _, err := ro.ReadDirectory(ctx, "/"); err != nil {
			t.Errorf("ReadDirectory() error = %v", err)
		}
	})

	t.Run("mutations are unavailable", func(t *testing.T) {
		checks := map[string]error{
			"write":  ro.WriteFile(ctx, "/new.txt", []byte("x"), vfskit.WithCreate(true)),
			"rename": ro.Rename(ctx, "/f.txt", "/g.txt"),
			"delete": ro.Delete(ctx, "/f.txt"),
			"mkdir":  ro.CreateDirectory(ctx, "/d"),
		}
		for op, err := range checks {
			if !errors.Is(err, vfskit.ErrReadOnly) {
				t.Errorf("%s error = %v, want read-only", op, err)
			}
			if !vfskit.IsUnavailable(err) {
				t.Errorf("%s error = %v, want unavailable", op, err)
			}
		}
		// The underlying file must be untouched.
		data, err := ro.ReadFile(ctx, "/f.txt")
		if err != nil || string(data) != "data" {
			t.Errorf("content after refused mutations = %q, %v", data, err)
		}
	})

	t.Run("checksum passes through", func(t *testing.T) {
		sum, err := ro.Checksum(ctx, "/f.txt", vfskit.ChecksumSHA256)
		if err != nil {
			t.Fatalf("Checksum() error = %v", err)
		}
		want, _ := vfskit.ChecksumBytes([]byte("data"), vfskit.ChecksumSHA256)
		if sum != want {
			t.Errorf("Checksum() = %s, want %s", sum, want)
		}
	})
}
