package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SyncLedgerPGStore struct {
	pool pgBeginner
}

func NewSyncLedgerPGStore(pool pgBeginner) *SyncLedgerPGStore {
	return &SyncLedgerPGStore{pool: pool}
}

var _ ports.SyncLedger = (*SyncLedgerPGStore)(nil)

func (s *SyncLedgerPGStore) begin(ctx context.Context, tenantID string) (pgx.Tx, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, errors.New("tenant_id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		_ = tx.Rollback(context.Background())
		return nil, err
	}
	return tx, nil
}

func (s *SyncLedgerPGStore) Record(ctx context.Context, tenantID string, r types.SyncResult) error {
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO gov.sync_runs (tenant_id, adapter, success, message, records, synced_at)
VALUES ($1::uuid, $2, $3, NULLIF($4, ''), $5, $6)
`, tenantID, r.Adapter, r.Success, r.Message, r.Records, r.SyncedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *SyncLedgerPGStore) Last(ctx context.Context, tenantID string, adapter string) (types.SyncResult, bool, error) {
	tx, err := s.begin(ctx, tenantID)
	if err != nil {
		return types.SyncResult{}, false, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	r := types.SyncResult{Adapter: adapter}
	err = tx.QueryRow(ctx, `
SELECT success, COALESCE(message, ''), records, synced_at
FROM gov.sync_runs
WHERE tenant_id = $1::uuid AND adapter = $2
ORDER BY synced_at DESC, id DESC
LIMIT 1
`, tenantID, adapter).Scan(&r.Success, &r.Message, &r.Records, &r.SyncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.SyncResult{}, false, nil
		}
		return types.SyncResult{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.SyncResult{}, false, err
	}
	return r, true, nil
}
