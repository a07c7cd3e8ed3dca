package services

import (
	"context"
	"log"
	"slices"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/government/domain/types"
	"golang.org/x/sync/errgroup"
)

type SyncService struct {
	portals  map[string]ports.Portal
	ledger   ports.SyncLedger
	observer ports.SyncObserver
	logger   *log.Logger
	now      func() time.Time
}

type SyncOptions struct {
	Portals  map[string]ports.Portal
	Ledger   ports.SyncLedger
	Observer ports.SyncObserver
	Logger   *log.Logger
}

func NewSyncService(opts SyncOptions) *SyncService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &SyncService{
		portals:  opts.Portals,
		ledger:   opts.Ledger,
		observer: opts.Observer,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SyncService) Portal(name string) (ports.Portal, bool) {
	p, ok := s.portals[name]
	return p, ok
}

// SyncOne runs one adapter and reports its outcome; it never returns an error
// for a portal failure.
func (s *SyncService) SyncOne(ctx context.Context, tenantID string, adapter string) types.SyncResult {
	start := s.now()
	res := types.SyncResult{Adapter: adapter}

	p, ok := s.portals[adapter]
	if !ok {
		res.Message = ports.ErrAdapterNotConfigured.Error()
	} else if n, err := p.Sync(ctx, tenantID); err != nil {
		res.Message = err.Error()
	} else {
		res.Success = true
		res.Records = n
	}
	res.SyncedAt = s.now().UTC()

	if s.observer != nil {
		s.observer.ObserveSync(adapter, res.Success, s.now().Sub(start))
	}
	if s.ledger != nil {
		if err := s.ledger.Record(context.WithoutCancel(ctx), tenantID, res); err != nil {
			s.logger.Printf("government: ledger record failed adapter=%s tenant_id=%s err=%v", adapter, tenantID, err)
		}
	}
	s.logger.Printf("government: sync adapter=%s tenant_id=%s success=%t records=%d dur=%s", adapter, tenantID, res.Success, res.Records, s.now().Sub(start))
	return res
}

// BulkSync runs adapters concurrently. The group has no shared context, so
// one adapter failing never cancels the others; results keep input order.
func (s *SyncService) BulkSync(ctx context.Context, tenantID string, adapters []string) []types.SyncResult {
	if len(adapters) == 0 {
		adapters = types.Adapters()
	}
	adapters = dedupe(adapters)

	results := make([]types.SyncResult, len(adapters))
	var g errgroup.Group
	for i, name := range adapters {
		g.Go(func() error {
			results[i] = s.SyncOne(ctx, tenantID, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *SyncService) Status(ctx context.Context, tenantID string, adapter string) (types.AdapterStatus, error) {
	st := types.AdapterStatus{Adapter: adapter}
	p, ok := s.portals[adapter]
	if ok {
		st.Configured = p.Configured()
		portal, err := p.Status(ctx, tenantID)
		if err != nil {
			st.Portal = map[string]any{"error": err.Error()}
		} else {
			st.Portal = portal
		}
	}
	if s.ledger != nil {
		last, found, err := s.ledger.Last(ctx, tenantID, adapter)
		if err != nil {
			return types.AdapterStatus{}, err
		}
		if found {
			st.LastSync = &last
		}
	}
	return st, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
