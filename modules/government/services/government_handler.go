package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

// GovernmentHandler serves:
//
//	GET  /government                    adapter catalogue
//	POST /government/sync               bulk sync (data.adapters optional)
//	POST /government/{adapter}/sync     single adapter sync
//	GET  /government/{adapter}/status   adapter status
type GovernmentHandler struct {
	svc *SyncService
}

func NewGovernmentHandler(svc *SyncService) *GovernmentHandler {
	return &GovernmentHandler{svc: svc}
}

type bulkRequest struct {
	Adapters []string `json:"adapters"`
}

type BulkResult struct {
	Results   []types.SyncResult `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

func (h *GovernmentHandler) Handle(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	tenantID := call.Params.String(unifiedapi.ParamTenantID)
	if tenantID == "" {
		tenantID = call.TenantID
	}
	segs := call.Endpoint.Segments()

	switch {
	case len(segs) == 0:
		if call.Method != unifiedapi.MethodGet {
			return unifiedapi.Response{}, httperr.NewBadRequest("method not allowed")
		}
		return unifiedapi.OK(h.catalogue(), nil), nil

	case len(segs) == 1 && segs[0] == "sync":
		if call.Method != unifiedapi.MethodPost {
			return unifiedapi.Response{}, httperr.NewBadRequest("bulk sync requires POST")
		}
		adapters, err := parseBulk(call.Data)
		if err != nil {
			return unifiedapi.Response{}, err
		}
		out := BulkResult{Results: h.svc.BulkSync(ctx, tenantID, adapters)}
		for _, r := range out.Results {
			if r.Success {
				out.Succeeded++
			} else {
				out.Failed++
			}
		}
		return unifiedapi.OK(out, nil), nil

	case len(segs) == 2:
		adapter := segs[0]
		if !types.KnownAdapter(adapter) {
			return unifiedapi.Response{}, httperr.NewNotFound("adapter", adapter)
		}
		switch segs[1] {
		case "sync":
			if call.Method != unifiedapi.MethodPost {
				return unifiedapi.Response{}, httperr.NewBadRequest("sync requires POST")
			}
			r := h.svc.SyncOne(ctx, tenantID, adapter)
			if !r.Success {
				return unifiedapi.Response{Data: r, Success: false, Message: r.Message}, nil
			}
			return unifiedapi.OK(r, nil), nil
		case "status":
			if call.Method != unifiedapi.MethodGet {
				return unifiedapi.Response{}, httperr.NewBadRequest("status requires GET")
			}
			st, err := h.svc.Status(ctx, tenantID, adapter)
			if err != nil {
				return unifiedapi.Response{}, err
			}
			return unifiedapi.OK(st, nil), nil
		}
	}
	return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
}

func (h *GovernmentHandler) catalogue() []map[string]any {
	out := make([]map[string]any, 0, len(types.Adapters()))
	for _, name := range types.Adapters() {
		p, ok := h.svc.Portal(name)
		out = append(out, map[string]any{"adapter": name, "configured": ok && p.Configured()})
	}
	return out
}

func parseBulk(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var req bulkRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, httperr.NewBadRequest("invalid bulk sync payload")
	}
	for _, a := range req.Adapters {
		if !types.KnownAdapter(a) {
			return nil, httperr.NewBadRequest(fmt.Sprintf("unknown adapter %q", a))
		}
	}
	return req.Adapters, nil
}
