package search

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gobeaver/vfskit"
)

// TextSearch scans file content under root and streams every match through
// onMatch as it is found, so callers can render partial results before the
// walk completes. Include and exclude globs are applied to paths before any
// content is read; binary files are skipped silently, never reported as
// matches or errors. Cancellation is cooperative: checked at each directory
// boundary and before each file, with in-flight scans allowed to finish.
//
// onMatch is never invoked concurrently.
func (e *Engine) TextSearch(ctx context.Context, q TextQuery, root string, onMatch func(Match)) error {
	includes, err := compileGlobSet(q.Includes)
	if err != nil {
		return err
	}
	excludes, err := compileGlobSet(q.Excludes)
	if err != nil {
		return err
	}
	re, err := CompileTextPattern(q)
	if err != nil {
		return err
	}

	// Surface a bad root as an error rather than silence.
	if _, err := e.src.ReadDirectory(ctx, root); err != nil {
		return err
	}

	var mu sync.Mutex
	emit := func(m Match) {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		onMatch(m)
	}

	e.walkDir(ctx, root, excludes, func(path string, _ vfskit.DirEntry) {
		if !includes.Empty() && !includes.Match(path) {
			return
		}
		e.scanFile(ctx, path, re, emit)
	})
	return nil
}

// CompileTextPattern builds the content regex for a query: the pattern is
// escaped to a literal unless IsRegex, wrapped in word-boundary anchors when
// IsWordMatch, and case-insensitive unless IsCaseSensitive.
func CompileTextPattern(q TextQuery) (*regexp.Regexp, error) {
	expr := q.Pattern
	if !q.IsRegex {
		expr = regexp.QuoteMeta(expr)
	}
	if q.IsWordMatch {
		expr = `\b(?:` + expr + `)\b`
	}
	if !q.IsCaseSensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

// scanFile runs the compiled pattern over one file. Unreadable files are
// skipped; the line index is built once, on the first match only.
func (e *Engine) scanFile(ctx context.Context, path string, re *regexp.Regexp, emit func(Match)) {
	data, err := e.src.ReadFile(ctx, path)
	if err != nil {
		e.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")
		return
	}
	if IsBinary(path, data) {
		return
	}

	content := string(data)
	locations := re.FindAllStringIndex(content, -1)
	if len(locations) == 0 {
		return
	}

	index := buildLineIndex(content)
	for _, loc := range locations {
		line, column := index.locate(loc[0])
		lineEnd := index.starts[line] + len(index.lines[line])
		end := loc[1]
		if end > lineEnd {
			end = lineEnd
		}
		endColumn := end - index.starts[line]
		if endColumn < column {
			endColumn = column
		}
		emit(Match{
			Path:    path,
			Line:    line,
			Column:  [2]int{column, endColumn},
			Preview: index.lines[line],
		})
	}
}

// ============================================================================
// Line index
// ============================================================================

// lineIndex maps absolute character offsets back to (line, column) pairs.
type lineIndex struct {
	starts []int
	lines  []string
}

func buildLineIndex(content string) *lineIndex {
	lines := strings.Split(content, "\n")
	index := &lineIndex{
		starts: make([]int, len(lines)),
		lines:  lines,
	}
	offset := 0
	for i, line := range lines {
		index.starts[i] = offset
		offset += len(line) + 1 // the split newline
	}
	return index
}

// locate returns the zero-based line and column containing offset, found by
// binary search over the line start offsets.
func (ix *lineIndex) locate(offset int) (line, column int) {
	line = sort.Search(len(ix.starts), func(i int) bool {
		return ix.starts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return line, offset - ix.starts[line]
}
