package types

const (
	SectionDashboard   = "dashboard"
	SectionPerformance = "performance"
)

// Report is one analytics section: raw aggregates plus the KPIs derived from
// them.
type Report struct {
	Section string             `json:"section"`
	Scope   string             `json:"scope,omitempty"`
	Metrics map[string]float64 `json:"metrics"`
	KPIs    map[string]float64 `json:"kpis"`
}

// Review is a performance review outcome used by the in-memory aggregates.
type Review struct {
	TenantID       string  `json:"tenant_id"`
	EmployeeID     string  `json:"employee_id"`
	Completed      bool    `json:"completed"`
	Rating         float64 `json:"rating"`
	GoalsTotal     int     `json:"goals_total"`
	GoalsCompleted int     `json:"goals_completed"`
}
