//go:build unix

package native

import (
	"errors"
	"syscall"
)

// isNotEmpty reports whether err is the host's non-empty-directory error.
func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY)
}
