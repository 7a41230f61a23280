package vfskit

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRegistry(t *testing.T) {
	t.Run("attach returns an addressable root path", func(t *testing.T) {
		r := openTestRegistry(t)
		defer r.Close()

		rootPath, err := r.Attach("project", "/home/alice/project")
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if !strings.HasPrefix(rootPath, "/") || !strings.HasSuffix(rootPath, "/project/") {
			t.Errorf("unexpected root path %q", rootPath)
		}

		entry, rest, err := r.Resolve(rootPath + "src/main.go")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if entry.HandleRef != "/home/alice/project" {
			t.Errorf("HandleRef = %q, want /home/alice/project", entry.HandleRef)
		}
		if len(rest) != 2 || rest[0] != "src" || rest[1] != "main.go" {
			t.Errorf("remaining components = %v, want [src main.go]", rest)
		}
	})

	t.Run("ids are unique per attach", func(t *testing.T) {
		r := openTestRegistry(t)
		defer r.Close()

		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			rootPath, err := r.Attach("docs", "/srv/docs")
			if err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			if seen[rootPath] {
				t.Fatalf("duplicate root path %q", rootPath)
			}
			seen[rootPath] = true
		}
	})

	t.Run("resolve unknown root fails not found", func(t *testing.T) {
		r := openTestRegistry(t)
		defer r.Close()

		if _, _, err := r.Resolve("/nope/project/file.txt"); !IsNotFound(err) {
			t.Errorf("Resolve() error = %v, want not found", err)
		}
		if _, _, err := r.Resolve("/"); !IsNotFound(err) {
			t.Errorf("Resolve(/) error = %v, want not found", err)
		}
	})

	t.Run("name mismatch fails not found", func(t *testing.T) {
		r := openTestRegistry(t)
		defer r.Close()

		rootPath, err := r.Attach("project", "/home/alice/project")
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		id := SplitPath(rootPath)[0]
		if _, _, err := r.Resolve("/" + id + "/other/file.txt"); !IsNotFound(err) {
			t.Errorf("Resolve() error = %v, want not found", err)
		}
	})

	t.Run("entries survive reopen", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "registry.db")

		r, err := OpenRootRegistry(dbPath)
		if err != nil {
			t.Fatalf("OpenRootRegistry() error = %v", err)
		}
		rootPath, err := r.Attach("project", "/home/alice/project")
		if err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		r, err = OpenRootRegistry(dbPath)
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		defer r.Close()

		entry, _, err := r.Resolve(rootPath + "file.txt")
		if err != nil {
			t.Fatalf("Resolve() after reopen error = %v", err)
		}
		if entry.HandleRef != "/home/alice/project" {
			t.Errorf("HandleRef = %q, want /home/alice/project", entry.HandleRef)
		}

		roots := r.ListRoots()
		if len(roots) != 1 || roots[0] != rootPath {
			t.Errorf("ListRoots() = %v, want [%s]", roots, rootPath)
		}
	})
}

func openTestRegistry(t *testing.T) *RootRegistry {
	t.Helper()
	r, err := OpenRootRegistry(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("OpenRootRegistry() error = %v", err)
	}
	return r
}
