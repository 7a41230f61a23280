//go:build windows

package native

import (
	"os"
	"syscall"
	"time"
)

// extractBirthTime extracts the file creation time on Windows, which has it
// natively in the file attribute data.
func extractBirthTime(info os.FileInfo) *time.Time {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return nil
	}
	t := time.Unix(0, data.CreationTime.Nanoseconds())
	if t.IsZero() {
		return nil
	}
	return &t
}
