package persistence

import (
	"context"
	"sync"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
)

type SyncLedgerMemory struct {
	mu   sync.Mutex
	last map[string]types.SyncResult
}

func NewSyncLedgerMemory() *SyncLedgerMemory {
	return &SyncLedgerMemory{last: map[string]types.SyncResult{}}
}

var _ ports.SyncLedger = (*SyncLedgerMemory)(nil)

func (m *SyncLedgerMemory) Record(_ context.Context, tenantID string, r types.SyncResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[tenantID+"/"+r.Adapter] = r
	return nil
}

func (m *SyncLedgerMemory) Last(_ context.Context, tenantID string, adapter string) (types.SyncResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.last[tenantID+"/"+adapter]
	return r, ok, nil
}
