//go:build darwin

package native

import (
	"os"
	"syscall"
	"time"
)

// extractBirthTime extracts the file creation time on macOS, where
// Birthtimespec is available natively.
func extractBirthTime(info os.FileInfo) *time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
	if t.IsZero() {
		return nil
	}
	return &t
}
