package vfskit

import (
	"reflect"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"a/b", "/a/b"},
		{"/a/b/", "/a/b"},
		{"/a//b", "/a/b"},
		{"/a/./b", "/a/b"},
		{"/a/b/../c", "/a/c"},
	}
	for _, tc := range cases {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	if got := SplitPath("/"); got != nil {
		t.Errorf("expected no components for root, got %v", got)
	}
	if got := SplitPath("/a/b/c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected components: %v", got)
	}
}

func TestParentAndBase(t *testing.T) {
	if got := ParentPath("/a/b"); got != "/a" {
		t.Errorf("ParentPath = %q", got)
	}
	if got := ParentPath("/"); got != "/" {
		t.Errorf("ParentPath of root = %q", got)
	}
	if got := BasePath("/a/b.txt"); got != "b.txt" {
		t.Errorf("BasePath = %q", got)
	}
	if got := JoinPath("/a", "b", "c"); got != "/a/b/c" {
		t.Errorf("JoinPath = %q", got)
	}
}

func TestParseURI(t *testing.T) {
	t.Run("parses canonical form", func(t *testing.T) {
		u, err := ParseURI("memory:///notes/a.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Scheme != "memory" || u.Path != "/notes/a.txt" {
			t.Errorf("unexpected URI: %+v", u)
		}
	})

	t.Run("parses single-slash form", func(t *testing.T) {
		u, err := ParseURI("native:/r/home/src")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Scheme != "native" || u.Path != "/r/home/src" {
			t.Errorf("unexpected URI: %+v", u)
		}
	})

	t.Run("rejects missing scheme", func(t *testing.T) {
		if _, err := ParseURI("/no/scheme"); err == nil {
			t.Fatal("expected error for missing scheme")
		}
	})

	t.Run("round-trips through String", func(t *testing.T) {
		u := URI{Scheme: "memory", Path: "/a/b"}
		parsed, err := ParseURI(u.String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed != u {
			t.Errorf("round-trip mismatch: %+v != %+v", parsed, u)
		}
	})

	t.Run("join and parent", func(t *testing.T) {
		u := URI{Scheme: "memory", Path: "/a"}
		if got := u.Join("b", "c").Path; got != "/a/b/c" {
			t.Errorf("Join = %q", got)
		}
		if got := u.Join("b").Parent().Path; got != "/a" {
			t.Errorf("Parent = %q", got)
		}
	})
}
