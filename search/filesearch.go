package search

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/gobeaver/vfskit"
)

// FileSearch recursively enumerates files under root and returns the paths
// matching the query's fuzzy pattern, in enumeration order (not sorted).
// Exclude globs prune directories before recursion. Cancelling ctx stops
// the walk early and returns the results gathered so far.
//
// Only a failure to read the root itself propagates as an error.
func (e *Engine) FileSearch(ctx context.Context, q FileQuery, root string) ([]string, error) {
	excludes, err := compileGlobSet(q.Excludes)
	if err != nil {
		return nil, err
	}

	var re *regexp.Regexp
	if q.Pattern != "" {
		re, err = CompileFuzzyPattern(q.Pattern)
		if err != nil {
			return nil, err
		}
	}

	// Surface a bad root as an error rather than an empty result.
	if _, err := e.src.ReadDirectory(ctx, root); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var results []string
	e.walkDir(ctx, root, excludes, func(path string, _ vfskit.DirEntry) {
		if re != nil && !re.MatchString(path) {
			return
		}
		mu.Lock()
		results = append(results, path)
		mu.Unlock()
	})
	return results, nil
}

// CompileFuzzyPattern converts a filename query into its fuzzy regular
// expression: every character is escaped and treated as literal, with an
// any-characters wildcard between every pair and a trailing one, runs of
// adjacent wildcards collapsed. The result is matched case-insensitively
// and unanchored, so the query's characters need only appear in order
// somewhere in the path. Conventional glob wildcards have no special
// meaning.
func CompileFuzzyPattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	for _, r := range pattern {
		b.WriteString(regexp.QuoteMeta(string(r)))
		b.WriteString(".*")
	}
	expr := b.String()
	for strings.Contains(expr, ".*.*") {
		expr = strings.ReplaceAll(expr, ".*.*", ".*")
	}
	return regexp.Compile("(?i)" + expr)
}
