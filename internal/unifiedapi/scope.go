package unifiedapi

const (
	ParamTenantID             = "tenant_id"
	ParamScope                = "scope"
	ParamEmployeeFilter       = "employee_filter"
	ParamManagerFilter        = "manager_filter"
	ParamHRFilter             = "hr_filter"
	ParamCompanyFilter        = "company_filter"
	ParamDepartmentVisibility = "department_visibility"
	ParamEmployeeID           = "employee_id"
	ParamManagerID            = "manager_id"
)

// reservedParams are owned by the scope filter; caller-supplied values are
// always discarded.
var reservedParams = []string{
	ParamTenantID,
	ParamScope,
	ParamEmployeeFilter,
	ParamManagerFilter,
	ParamHRFilter,
	ParamCompanyFilter,
	ParamDepartmentVisibility,
}

// ApplyScope returns a copy of params narrowed to what role may see. It
// performs no I/O and never mutates params.
func ApplyScope(role Role, route Route, tenantID string, actorID string, params Params) Params {
	policy := PolicyFor(role)
	out := params.Clone()
	for _, k := range reservedParams {
		delete(out, k)
	}

	if !(policy.CrossTenant && route.SystemWide) {
		out[ParamTenantID] = tenantID
	}
	if policy.Scope != ScopeNone {
		out[ParamScope] = string(policy.Scope)
	}
	for _, f := range policy.Flags {
		out[f] = true
	}
	for k, v := range policy.Fixed {
		out[k] = v
	}
	if policy.ActorParam != "" {
		out[policy.ActorParam] = actorID
	}
	return out
}
