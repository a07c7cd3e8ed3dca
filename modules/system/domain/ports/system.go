package ports

import (
	"context"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/tenancy"
)

// Pinger is a backing store that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type TenantLister interface {
	ListTenants(ctx context.Context) ([]tenancy.Record, error)
}

type StatsSource interface {
	Snapshot() map[string]any
}
