package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/tenancy"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/system/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
	"golang.org/x/sync/errgroup"
)

const defaultPingTimeout = 2 * time.Second

type SystemOptions struct {
	Pingers     map[string]ports.Pinger
	Tenants     ports.TenantLister
	Stats       ports.StatsSource
	PingTimeout time.Duration
}

// SystemHandler serves the cross-tenant /system namespace.
type SystemHandler struct {
	pingers     map[string]ports.Pinger
	tenants     ports.TenantLister
	stats       ports.StatsSource
	pingTimeout time.Duration
}

func NewSystemHandler(opts SystemOptions) *SystemHandler {
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &SystemHandler{
		pingers:     opts.Pingers,
		tenants:     opts.Tenants,
		stats:       opts.Stats,
		pingTimeout: timeout,
	}
}

type ComponentHealth struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Health struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components"`
}

func (h *SystemHandler) Handle(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	// The router already gates /system; this handler does not trust that alone.
	if call.Role != unifiedapi.RoleSuperAdmin {
		return unifiedapi.Response{}, fmt.Errorf("%w: role %s on %s", unifiedapi.ErrForbiddenScope, call.Role, call.Endpoint.Path)
	}
	segs := call.Endpoint.Segments()
	if len(segs) != 1 {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
	if call.Method != unifiedapi.MethodGet {
		return unifiedapi.Response{}, httperr.NewBadRequest("system endpoints are read-only")
	}

	switch segs[0] {
	case "health":
		return unifiedapi.OK(h.health(ctx), nil), nil
	case "tenants":
		if h.tenants == nil {
			return unifiedapi.OK([]tenancy.Record{}, nil), nil
		}
		list, err := h.tenants.ListTenants(ctx)
		if err != nil {
			return unifiedapi.Response{}, fmt.Errorf("system: list tenants: %w", err)
		}
		if list == nil {
			list = []tenancy.Record{}
		}
		return unifiedapi.OK(list, &unifiedapi.Meta{Total: len(list)}), nil
	case "metrics":
		snap := map[string]any{}
		if h.stats != nil {
			snap = h.stats.Snapshot()
		}
		return unifiedapi.OK(snap, nil), nil
	default:
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
}

// health pings every component concurrently; a slow or failing component
// never hides the state of the others.
func (h *SystemHandler) health(ctx context.Context) Health {
	names := slices.Sorted(maps.Keys(h.pingers))
	out := Health{Status: "ok", Components: make([]ComponentHealth, len(names))}

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, h.pingTimeout)
			defer cancel()
			c := ComponentHealth{Name: name, OK: true}
			if err := h.pingers[name].Ping(pctx); err != nil {
				c.OK = false
				c.Error = err.Error()
			}
			out.Components[i] = c
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range out.Components {
		if !c.OK {
			out.Status = "degraded"
			break
		}
	}
	return out
}
