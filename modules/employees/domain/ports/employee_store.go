package ports

import (
	"context"
	"errors"
	"math"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/types"
)

var ErrTenantRequired = errors.New("employees: tenant id is required")

// Query selects employees within one tenant. EmployeeID narrows to a single
// record (self scope); ManagerID narrows to a manager's direct reports plus
// the manager (team scope).
type Query struct {
	TenantID     string
	EmployeeID   string
	ManagerID    string
	DepartmentID string
	Status       string
	Search       string
	Page         int
	Limit        int
}

// Offset saturates at math.MaxInt instead of overflowing.
func (q Query) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

type EmployeeStore interface {
	List(ctx context.Context, q Query) ([]types.Employee, int, error)
	Get(ctx context.Context, tenantID string, id string) (types.Employee, error)
	Create(ctx context.Context, tenantID string, in types.EmployeeInput) (types.Employee, error)
	Update(ctx context.Context, tenantID string, id string, in types.EmployeeInput) (types.Employee, error)
	Delete(ctx context.Context, tenantID string, id string) error
}
