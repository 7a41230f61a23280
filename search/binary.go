package search

import (
	"bytes"
	"path"
	"strings"
	"unicode/utf8"
)

// binarySniffLen is how many leading bytes are sampled when the extension
// is inconclusive.
const binarySniffLen = 1024

// knownBinaryExtensions are extensions whose content is never text.
var knownBinaryExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".ico": true, ".bmp": true, ".tiff": true,
	".mp3": true, ".ogg": true, ".wav": true, ".flac": true,
	".mp4": true, ".webm": true, ".avi": true, ".mkv": true, ".mov": true,
	".zip": true, ".gz": true, ".tar": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".o": true, ".a": true, ".class": true, ".jar": true, ".wasm": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".db": true, ".sqlite": true,
}

// IsBinary reports whether the file at path should be skipped by content
// search. The extension is consulted first; when inconclusive, a sample of
// the content is checked for binary-indicative byte patterns: embedded NUL
// bytes or byte sequences that are not valid UTF-8.
func IsBinary(p string, data []byte) bool {
	if knownBinaryExtensions[strings.ToLower(path.Ext(p))] {
		return true
	}
	if len(data) == 0 {
		return false
	}

	sample := data
	if len(sample) > binarySniffLen {
		sample = sample[:binarySniffLen]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	if utf8.Valid(sample) {
		return false
	}
	// The sample may have cut a multibyte rune at its end; trim up to three
	// trailing bytes before declaring the content non-text.
	for i := 1; i <= 3 && i < len(sample); i++ {
		if utf8.Valid(sample[:len(sample)-i]) {
			return false
		}
	}
	return true
}
