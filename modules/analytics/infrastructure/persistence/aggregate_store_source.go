package persistence

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/types"
	employeeports "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/ports"
	employeetypes "github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/types"
)

// StoreAggregates computes aggregates from an employee store. It backs the
// memory deployment, where there is no SQL to push aggregation into.
type StoreAggregates struct {
	employees employeeports.EmployeeStore
	now       func() time.Time

	mu      sync.RWMutex
	reviews []types.Review
}

func NewStoreAggregates(employees employeeports.EmployeeStore, reviews ...types.Review) *StoreAggregates {
	return &StoreAggregates{employees: employees, now: time.Now, reviews: reviews}
}

var _ ports.AggregateSource = (*StoreAggregates)(nil)

func (s *StoreAggregates) AddReview(r types.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, r)
}

const pageSize = 200

func (s *StoreAggregates) all(ctx context.Context, f ports.Filter) ([]employeetypes.Employee, error) {
	q := employeeports.Query{
		TenantID:     f.TenantID,
		EmployeeID:   f.EmployeeID,
		ManagerID:    f.ManagerID,
		DepartmentID: f.DepartmentID,
		Limit:        pageSize,
	}
	var out []employeetypes.Employee
	for page := 1; ; page++ {
		q.Page = page
		items, total, err := s.employees.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		if len(items) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

func (s *StoreAggregates) Dashboard(ctx context.Context, f ports.Filter) (map[string]float64, error) {
	list, err := s.all(ctx, f)
	if err != nil {
		return nil, err
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	m := map[string]float64{}
	for _, name := range dashboardColumns {
		m[name] = 0
	}
	depts := map[string]bool{}
	for _, e := range list {
		m["headcount"]++
		if e.DepartmentID != "" {
			depts[e.DepartmentID] = true
		}
		hired, herr := time.Parse(time.DateOnly, strings.TrimSpace(e.HireDate))
		if herr == nil && !hired.Before(today.AddDate(0, 0, -90)) {
			m["hires_90d"]++
		}
		switch e.Status {
		case employeetypes.StatusActive:
			m["active"]++
			if e.IsSaudi {
				m["saudi"]++
			}
			if herr == nil && hired.Before(today) {
				m["tenure_days_total"] += today.Sub(hired).Hours() / 24
			}
		case employeetypes.StatusOnLeave:
			m["on_leave"]++
		case employeetypes.StatusTerminated:
			m["terminated_12m"]++
		}
	}
	m["departments"] = float64(len(depts))
	m["avg_headcount_12m"] = m["active"] + m["terminated_12m"]/2
	return m, nil
}

func (s *StoreAggregates) Performance(ctx context.Context, f ports.Filter) (map[string]float64, error) {
	list, err := s.all(ctx, f)
	if err != nil {
		return nil, err
	}
	inScope := make(map[string]bool, len(list))
	for _, e := range list {
		inScope[e.ID] = true
	}

	m := map[string]float64{}
	for _, name := range performanceColumns {
		m[name] = 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reviews {
		if r.TenantID != f.TenantID || !inScope[r.EmployeeID] {
			continue
		}
		m["reviews_due"]++
		m["goals_total"] += float64(r.GoalsTotal)
		m["goals_completed"] += float64(r.GoalsCompleted)
		if !r.Completed {
			continue
		}
		m["reviews_completed"]++
		if r.Rating > 0 {
			m["rating_sum"] += r.Rating
			m["rating_count"]++
			if r.Rating >= 4 {
				m["high_performers"]++
			}
		}
	}
	return m, nil
}
