package ports

import (
	"context"
	"errors"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
)

var ErrAdapterNotConfigured = errors.New("government: adapter is not configured")

// Portal is one government platform integration.
type Portal interface {
	Name() string
	Configured() bool
	Sync(ctx context.Context, tenantID string) (records int, err error)
	Status(ctx context.Context, tenantID string) (map[string]any, error)
}

// SyncLedger keeps the latest sync outcome per tenant and adapter.
type SyncLedger interface {
	Record(ctx context.Context, tenantID string, r types.SyncResult) error
	Last(ctx context.Context, tenantID string, adapter string) (types.SyncResult, bool, error)
}

type SyncObserver interface {
	ObserveSync(adapter string, success bool, d time.Duration)
}
