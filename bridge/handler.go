package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gobeaver/vfskit"
)

// Handler dispatches marshaled requests onto a dispatcher. One handler is
// safe for concurrent use.
type Handler struct {
	d *vfskit.Dispatcher
}

// NewHandler creates a handler over d.
func NewHandler(d *vfskit.Dispatcher) *Handler {
	return &Handler{d: d}
}

// Handle decodes one request, performs it, and returns the encoded
// response. Failures are carried inside the response; the returned error is
// reserved for undecodable input.
func (h *Handler) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	resp := h.Dispatch(ctx, &req)
	return json.Marshal(resp)
}

// Dispatch performs one decoded request.
func (h *Handler) Dispatch(ctx context.Context, req *Request) *Response {
	switch req.Op {
	case OpStat:
		stat, err := h.d.Stat(ctx, req.Path)
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{Stat: statDTO(stat)}

	case OpReadDirectory:
		entries, err := h.d.ReadDirectory(ctx, req.Path)
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		dtos := make([]EntryDTO, len(entries))
		for i, e := range entries {
			dtos[i] = EntryDTO{Name: e.Name, Kind: e.Kind.String()}
		}
		return &Response{Entries: dtos}

	case OpReadFile:
		data, err := h.d.ReadFile(ctx, req.Path)
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{Data: BytesToInts(data)}

	case OpWriteFile:
		data, err := IntsToBytes(req.Data)
		if err != nil {
			return &Response{Error: &ErrorDTO{Kind: KindUnknown, Message: err.Error()}}
		}
		err = h.d.WriteFile(ctx, req.Path, data,
			vfskit.WithCreate(req.Opts.Create), vfskit.WithOverwrite(req.Opts.Overwrite))
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{}

	case OpRename:
		err := h.d.Rename(ctx, req.Path, req.Target, vfskit.WithOverwrite(req.Opts.Overwrite))
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{}

	case OpDelete:
		err := h.d.Delete(ctx, req.Path, vfskit.WithRecursive(req.Opts.Recursive))
		if err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{}

	case OpCreateDirectory:
		if err := h.d.CreateDirectory(ctx, req.Path); err != nil {
			return &Response{Error: errorDTO(err)}
		}
		return &Response{}

	default:
		return &Response{Error: &ErrorDTO{
			Kind:    KindUnknown,
			Message: fmt.Sprintf("unknown operation %q", req.Op),
		}}
	}
}
