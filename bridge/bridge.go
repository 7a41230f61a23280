// Package bridge exposes every backend operation through a named
// request/response indirection, for callers on the far side of an isolation
// boundary that cannot hold a dispatcher directly. Messages are
// transport-agnostic JSON; byte payloads are marshaled as arrays of small
// integers (0-255) because some transports cannot carry raw binary data.
package bridge

import (
	"fmt"
	"time"

	"github.com/gobeaver/vfskit"
)

// Operation names accepted by the handler. They mirror the backend driver
// contract one to one.
const (
	OpStat            = "stat"
	OpReadDirectory   = "readDirectory"
	OpReadFile        = "readFile"
	OpWriteFile       = "writeFile"
	OpRename          = "rename"
	OpDelete          = "delete"
	OpCreateDirectory = "createDirectory"
)

// Request is one marshaled operation call: (operationName, path, args...).
type Request struct {
	Op     string  `json:"op"`
	Path   string  `json:"path"`
	Target string  `json:"target,omitempty"` // rename destination
	Data   []int   `json:"data,omitempty"`   // write payload, bytes as 0-255
	Opts   OptsDTO `json:"opts"`
}

// OptsDTO carries the operation flags across the boundary.
type OptsDTO struct {
	Create    bool `json:"create,omitempty"`
	Overwrite bool `json:"overwrite,omitempty"`
	Recursive bool `json:"recursive,omitempty"`
}

// Response is the result of one operation. Exactly one of the payload
// fields is populated on success; Error is set on failure.
type Response struct {
	Stat    *StatDTO   `json:"stat,omitempty"`
	Entries []EntryDTO `json:"entries,omitempty"`
	Data    []int      `json:"data,omitempty"`
	Error   *ErrorDTO  `json:"error,omitempty"`
}

// StatDTO is the JSON representation of vfskit.FileStat.
type StatDTO struct {
	Kind       string    `json:"kind"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// EntryDTO is the JSON representation of one directory entry.
type EntryDTO struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// ErrorDTO carries a taxonomy kind plus the human-readable message.
type ErrorDTO struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds carried across the boundary.
const (
	KindNotFound    = "NotFound"
	KindExists      = "AlreadyExists"
	KindIsDir       = "IsADirectory"
	KindUnavailable = "Unavailable"
	KindUnknown     = "Unknown"
)

// BytesToInts converts a byte payload into its wire form.
func BytesToInts(data []byte) []int {
	if data == nil {
		return nil
	}
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	return out
}

// IntsToBytes converts a wire payload back into bytes, rejecting values
// outside 0-255.
func IntsToBytes(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("payload value %d at index %d out of byte range", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func statDTO(stat *vfskit.FileStat) *StatDTO {
	return &StatDTO{
		Kind:       stat.Kind.String(),
		Size:       stat.Size,
		CreatedAt:  stat.CreatedAt,
		ModifiedAt: stat.ModifiedAt,
	}
}

func errorDTO(err error) *ErrorDTO {
	kind := KindUnknown
	switch {
	case vfskit.IsNotFound(err):
		kind = KindNotFound
	case vfskit.IsExists(err):
		kind = KindExists
	case vfskit.IsIsDir(err):
		kind = KindIsDir
	case vfskit.IsUnavailable(err):
		kind = KindUnavailable
	}
	return &ErrorDTO{Kind: kind, Message: err.Error()}
}
