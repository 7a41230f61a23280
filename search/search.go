// Package search provides the recursive search engine of the virtual
// filesystem: fuzzy filename search and streamed regex content search. The
// engine operates purely through the three-method Source contract, so it is
// backend-agnostic; *vfskit.Dispatcher satisfies Source.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/gobeaver/vfskit"
)

// Source is the read-only slice of the backend contract the engine needs.
type Source interface {
	Stat(ctx context.Context, path string) (*vfskit.FileStat, error)
	ReadDirectory(ctx context.Context, path string) ([]vfskit.DirEntry, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileQuery selects filenames. An empty Pattern matches everything.
type FileQuery struct {
	Pattern  string
	Excludes []string
}

// TextQuery selects file content. Pattern is interpreted literally unless
// IsRegex is set.
type TextQuery struct {
	Pattern         string
	IsRegex         bool
	IsCaseSensitive bool
	IsWordMatch     bool
	Includes        []string
	Excludes        []string
}

// Match is one content hit. Line and columns are zero-based; the column
// range is end-exclusive, measured in bytes within the line.
type Match struct {
	Path    string
	Line    int
	Column  [2]int
	Preview string
}

// DefaultConcurrency bounds the walk's total goroutine fan-out when no
// explicit limit is configured.
const DefaultConcurrency = 8

// Engine is a reusable search engine over a Source.
type Engine struct {
	src   Source
	limit int
	log   zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConcurrency bounds the number of directory walkers running at once
// across the whole walk. The contract's recursion is unbounded fan-out; a
// fixed shared pool is the deliberate deviation for this runtime.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// NewEngine creates an engine reading through src.
func NewEngine(src Source, options ...EngineOption) *Engine {
	e := &Engine{
		src:   src,
		limit: DefaultConcurrency,
		log:   log.With().Str("component", "search").Logger(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ============================================================================
// Shared walk
// ============================================================================

// walkDir enumerates dir recursively, spawning one task per subdirectory
// and joining all children before returning. The concurrency limit is one
// semaphore shared by the entire walk, not a per-directory pool; a
// subdirectory that cannot acquire a slot is walked inline by its parent.
// Excluded directories are pruned before recursion; their contents are
// never visited. Cancellation is cooperative: checked at each directory
// boundary and before each file, never mid-scan. Unreadable subdirectories
// are skipped, not surfaced.
func (e *Engine) walkDir(ctx context.Context, dir string, excludes *globSet, onFile func(path string, entry vfskit.DirEntry)) {
	sem := semaphore.NewWeighted(int64(e.limit))
	var wg sync.WaitGroup
	e.walk(ctx, dir, excludes, onFile, sem, &wg)
	wg.Wait()
}

func (e *Engine) walk(ctx context.Context, dir string, excludes *globSet, onFile func(path string, entry vfskit.DirEntry), sem *semaphore.Weighted, wg *sync.WaitGroup) {
	if ctx.Err() != nil {
		return
	}

	entries, err := e.src.ReadDirectory(ctx, dir)
	if err != nil {
		e.log.Debug().Err(err).Str("dir", dir).Msg("skipping unreadable directory")
		return
	}

	for _, entry := range entries {
		path := joinPath(dir, entry.Name)
		if excludes.Match(path) {
			continue
		}
		switch entry.Kind {
		case vfskit.KindDirectory:
			if sem.TryAcquire(1) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer sem.Release(1)
					e.walk(ctx, path, excludes, onFile, sem, wg)
				}()
			} else {
				e.walk(ctx, path, excludes, onFile, sem, wg)
			}
		case vfskit.KindFile:
			if ctx.Err() != nil {
				return
			}
			onFile(path, entry)
		}
	}
}

// joinPath appends a child name to a walk path without re-normalizing,
// since walk paths may be scheme-tagged URIs.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// ============================================================================
// Glob filtering
// ============================================================================

// globSet is a compiled list of glob patterns matched against full walk
// paths with '/' as the separator.
type globSet struct {
	globs []glob.Glob
}

func compileGlobSet(patterns []string) (*globSet, error) {
	s := &globSet{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// Match reports whether any pattern matches path or its final component.
func (s *globSet) Match(path string) bool {
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	for _, g := range s.globs {
		if g.Match(path) || g.Match(base) {
			return true
		}
	}
	return false
}

func (s *globSet) Empty() bool {
	return len(s.globs) == 0
}
