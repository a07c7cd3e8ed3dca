package ports

import "context"

// Filter narrows aggregates the same way employee listings are narrowed.
type Filter struct {
	TenantID     string
	EmployeeID   string
	ManagerID    string
	DepartmentID string
}

type AggregateSource interface {
	Dashboard(ctx context.Context, f Filter) (map[string]float64, error)
	Performance(ctx context.Context, f Filter) (map[string]float64, error)
}
