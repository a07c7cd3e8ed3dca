package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

// EmployeeMemoryStore backs demo and local runs without Postgres.
type EmployeeMemoryStore struct {
	mu       sync.RWMutex
	byTenant map[string]map[string]types.Employee
}

func NewEmployeeMemoryStore(seed ...types.Employee) *EmployeeMemoryStore {
	s := &EmployeeMemoryStore{byTenant: map[string]map[string]types.Employee{}}
	for _, e := range seed {
		if s.byTenant[e.TenantID] == nil {
			s.byTenant[e.TenantID] = map[string]types.Employee{}
		}
		s.byTenant[e.TenantID][e.ID] = e
	}
	return s
}

var _ ports.EmployeeStore = (*EmployeeMemoryStore)(nil)

func matches(q ports.Query, e types.Employee) bool {
	if q.EmployeeID != "" && e.ID != q.EmployeeID {
		return false
	}
	if q.ManagerID != "" && e.ManagerID != q.ManagerID && e.ID != q.ManagerID {
		return false
	}
	if q.DepartmentID != "" && e.DepartmentID != q.DepartmentID {
		return false
	}
	if q.Status != "" && e.Status != q.Status {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		hay := strings.ToLower(e.FullName + "\x00" + e.FullNameAr + "\x00" + e.EmployeeNumber + "\x00" + e.Email)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func (s *EmployeeMemoryStore) List(_ context.Context, q ports.Query) ([]types.Employee, int, error) {
	if strings.TrimSpace(q.TenantID) == "" {
		return nil, 0, ports.ErrTenantRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []types.Employee
	for _, e := range s.byTenant[q.TenantID] {
		if matches(q, e) {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].EmployeeNumber != all[j].EmployeeNumber {
			return all[i].EmployeeNumber < all[j].EmployeeNumber
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	start := min(q.Offset(), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	out := make([]types.Employee, end-start)
	copy(out, all[start:end])
	return out, total, nil
}

func (s *EmployeeMemoryStore) Get(_ context.Context, tenantID string, id string) (types.Employee, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Employee{}, ports.ErrTenantRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byTenant[tenantID][id]
	if !ok {
		return types.Employee{}, httperr.NewNotFound("employee", id)
	}
	return e, nil
}

func (s *EmployeeMemoryStore) Create(_ context.Context, tenantID string, in types.EmployeeInput) (types.Employee, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Employee{}, ports.ErrTenantRequired
	}
	id, err := uuid.NewV7()
	if err != nil {
		return types.Employee{}, err
	}
	e := types.Employee{ID: id.String(), TenantID: tenantID, Status: types.StatusActive}
	in.Apply(&e)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byTenant[tenantID] == nil {
		s.byTenant[tenantID] = map[string]types.Employee{}
	}
	s.byTenant[tenantID][e.ID] = e
	return e, nil
}

func (s *EmployeeMemoryStore) Update(_ context.Context, tenantID string, id string, in types.EmployeeInput) (types.Employee, error) {
	if strings.TrimSpace(tenantID) == "" {
		return types.Employee{}, ports.ErrTenantRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byTenant[tenantID][id]
	if !ok {
		return types.Employee{}, httperr.NewNotFound("employee", id)
	}
	in.Apply(&e)
	s.byTenant[tenantID][id] = e
	return e, nil
}

func (s *EmployeeMemoryStore) Delete(_ context.Context, tenantID string, id string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ports.ErrTenantRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTenant[tenantID][id]; !ok {
		return httperr.NewNotFound("employee", id)
	}
	delete(s.byTenant[tenantID], id)
	return nil
}
