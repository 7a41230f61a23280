//go:build !linux && !darwin && !windows

package native

import (
	"os"
	"time"
)

// extractBirthTime has no portable source on the remaining platforms.
func extractBirthTime(info os.FileInfo) *time.Time {
	return nil
}
