package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/ports"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AggregatePGStore struct {
	pool pgBeginner
}

func NewAggregatePGStore(pool pgBeginner) *AggregatePGStore {
	return &AggregatePGStore{pool: pool}
}

var _ ports.AggregateSource = (*AggregatePGStore)(nil)

var errTenantRequired = errors.New("analytics: tenant id is required")

func filterWhere(alias string, f ports.Filter) (string, []any) {
	col := func(c string) string { return alias + "." + c }
	conds := []string{col("tenant_id") + " = $1::uuid"}
	args := []any{f.TenantID}
	if f.EmployeeID != "" {
		args = append(args, f.EmployeeID)
		conds = append(conds, fmt.Sprintf("%s = $%d::uuid", col("id"), len(args)))
	}
	if f.ManagerID != "" {
		args = append(args, f.ManagerID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(%s = $%d::uuid OR %s = $%d::uuid)", col("manager_id"), n, col("id"), n))
	}
	if f.DepartmentID != "" {
		args = append(args, f.DepartmentID)
		conds = append(conds, fmt.Sprintf("%s = $%d::uuid", col("department_id"), len(args)))
	}
	return strings.Join(conds, " AND "), args
}

// filterIDsValid is false when a scope id cannot be a uuid; such a filter
// selects no employees.
func filterIDsValid(f ports.Filter) bool {
	for _, id := range []string{f.EmployeeID, f.ManagerID, f.DepartmentID} {
		if id != "" && uuid.Validate(id) != nil {
			return false
		}
	}
	return true
}

func zeros(names []string) map[string]float64 {
	out := make(map[string]float64, len(names))
	for _, n := range names {
		out[n] = 0
	}
	return out
}

func (s *AggregatePGStore) aggregate(ctx context.Context, f ports.Filter, sql string, args []any, names []string) (map[string]float64, error) {
	tenantID := f.TenantID
	if strings.TrimSpace(tenantID) == "" {
		return nil, errTenantRequired
	}
	if !filterIDsValid(f) {
		return zeros(names), nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	vals := make([]float64, len(names))
	dest := make([]any, len(names))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := tx.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(names))
	for i, n := range names {
		out[n] = vals[i]
	}
	return out, nil
}

var dashboardColumns = []string{
	"headcount", "active", "on_leave", "saudi", "terminated_12m",
	"avg_headcount_12m", "tenure_days_total", "departments", "hires_90d",
}

func (s *AggregatePGStore) Dashboard(ctx context.Context, f ports.Filter) (map[string]float64, error) {
	where, args := filterWhere("e", f)
	sql := `
SELECT
  count(*)::float8,
  count(*) FILTER (WHERE e.status = 'active')::float8,
  count(*) FILTER (WHERE e.status = 'on_leave')::float8,
  count(*) FILTER (WHERE e.status = 'active' AND e.is_saudi)::float8,
  count(*) FILTER (WHERE e.status = 'terminated' AND e.terminated_at >= now() - interval '12 months')::float8,
  (count(*) FILTER (WHERE e.status = 'active')
    + count(*) FILTER (WHERE e.status = 'terminated' AND e.terminated_at >= now() - interval '12 months') / 2.0)::float8,
  COALESCE(sum(current_date - e.hire_date) FILTER (WHERE e.status = 'active' AND e.hire_date IS NOT NULL), 0)::float8,
  count(DISTINCT e.department_id)::float8,
  count(*) FILTER (WHERE e.hire_date >= current_date - 90)::float8
FROM hr.employees e
WHERE ` + where
	return s.aggregate(ctx, f, sql, args, dashboardColumns)
}

var performanceColumns = []string{
	"reviews_due", "reviews_completed", "rating_sum", "rating_count",
	"high_performers", "goals_total", "goals_completed",
}

func (s *AggregatePGStore) Performance(ctx context.Context, f ports.Filter) (map[string]float64, error) {
	where, args := filterWhere("e", f)
	sql := `
SELECT
  count(r.id)::float8,
  count(r.id) FILTER (WHERE r.completed_at IS NOT NULL)::float8,
  COALESCE(sum(r.rating) FILTER (WHERE r.rating IS NOT NULL), 0)::float8,
  count(r.rating)::float8,
  count(r.id) FILTER (WHERE r.rating >= 4)::float8,
  COALESCE(sum(r.goals_total), 0)::float8,
  COALESCE(sum(r.goals_completed), 0)::float8
FROM hr.employees e
JOIN hr.performance_reviews r ON r.tenant_id = e.tenant_id AND r.employee_id = e.id
WHERE ` + where
	return s.aggregate(ctx, f, sql, args, performanceColumns)
}
