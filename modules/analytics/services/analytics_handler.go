package services

import (
	"context"
	"fmt"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/analytics/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

type kpiEvaluator interface {
	Evaluate(section string, base map[string]float64) (map[string]float64, error)
}

// AnalyticsHandler serves /analytics/dashboard and /analytics/performance.
type AnalyticsHandler struct {
	source ports.AggregateSource
	kpis   kpiEvaluator
}

func NewAnalyticsHandler(source ports.AggregateSource, kpis kpiEvaluator) *AnalyticsHandler {
	return &AnalyticsHandler{source: source, kpis: kpis}
}

func (h *AnalyticsHandler) Handle(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	segs := call.Endpoint.Segments()
	if len(segs) != 1 {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
	section := segs[0]
	if section != types.SectionDashboard && section != types.SectionPerformance {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
	if call.Method != unifiedapi.MethodGet {
		return unifiedapi.Response{}, httperr.NewBadRequest("analytics is read-only")
	}

	scope := call.Params.String(unifiedapi.ParamScope)
	report := types.Report{Section: section, Scope: scope}

	f, ok := filterFromParams(call)
	var base map[string]float64
	var err error
	switch {
	case !ok:
		base = map[string]float64{}
	case section == types.SectionDashboard:
		base, err = h.source.Dashboard(ctx, f)
	default:
		base, err = h.source.Performance(ctx, f)
	}
	if err != nil {
		return unifiedapi.Response{}, err
	}
	report.Metrics = base

	report.KPIs = map[string]float64{}
	if h.kpis != nil {
		kpis, err := h.kpis.Evaluate(section, base)
		if err != nil {
			return unifiedapi.Response{}, err
		}
		report.KPIs = kpis
	}
	return unifiedapi.OK(report, nil), nil
}

func filterFromParams(call unifiedapi.Call) (ports.Filter, bool) {
	p := call.Params
	f := ports.Filter{
		TenantID:     p.String(unifiedapi.ParamTenantID),
		DepartmentID: p.String("department_id"),
	}
	if f.TenantID == "" {
		f.TenantID = call.TenantID
	}
	switch unifiedapi.Scope(p.String(unifiedapi.ParamScope)) {
	case unifiedapi.ScopeSelf:
		f.EmployeeID = p.String(unifiedapi.ParamEmployeeID)
		return f, f.EmployeeID != ""
	case unifiedapi.ScopeTeam:
		f.ManagerID = p.String(unifiedapi.ParamManagerID)
		return f, f.ManagerID != ""
	}
	return f, true
}
