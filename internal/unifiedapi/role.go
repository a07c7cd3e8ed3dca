package unifiedapi

import (
	"strings"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/authz"
)

type Role string

const (
	RoleSuperAdmin Role = authz.RoleSuperAdmin
	RoleAdmin      Role = authz.RoleAdmin
	RoleHRManager  Role = authz.RoleHRManager
	RoleManager    Role = authz.RoleManager
	RoleEmployee   Role = authz.RoleEmployee
)

// ParseRole normalizes a role slug. Anything outside the known set maps to
// RoleEmployee, the most restrictive role.
func ParseRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := rolePolicies[r]; ok {
		return r
	}
	return RoleEmployee
}

type Scope string

const (
	ScopeNone    Scope = ""
	ScopeSelf    Scope = "self"
	ScopeTeam    Scope = "team"
	ScopeHR      Scope = "hr"
	ScopeCompany Scope = "company"
)

type ShapeRule string

const (
	ShapePassThrough   ShapeRule = ""
	ShapeMaskSensitive ShapeRule = "mask_sensitive"
	ShapeTeamFields    ShapeRule = "team_fields"
	ShapeHRDetail      ShapeRule = "hr_detail"
	ShapeAdminDetail   ShapeRule = "admin_detail"
	ShapeSystemMetrics ShapeRule = "system_metrics"
)

// RolePolicy is the capability descriptor of a role. The scope filter and the
// response shaper both read it.
type RolePolicy struct {
	Role  Role
	Scope Scope
	// Flags are injected as true into every scoped parameter map.
	Flags []string
	// Fixed are injected verbatim.
	Fixed map[string]string
	// ActorParam receives the caller's own id (employee_id, manager_id).
	ActorParam string
	Shape      ShapeRule
	// CrossTenant allows dropping the tenant constraint on system-wide routes.
	CrossTenant bool
}

var rolePolicies = map[Role]RolePolicy{
	RoleSuperAdmin: {
		Role:        RoleSuperAdmin,
		Shape:       ShapeSystemMetrics,
		CrossTenant: true,
	},
	RoleAdmin: {
		Role:  RoleAdmin,
		Scope: ScopeCompany,
		Flags: []string{ParamCompanyFilter},
		Shape: ShapeAdminDetail,
	},
	RoleHRManager: {
		Role:  RoleHRManager,
		Scope: ScopeHR,
		Flags: []string{ParamHRFilter},
		Fixed: map[string]string{ParamDepartmentVisibility: "all"},
		Shape: ShapeHRDetail,
	},
	RoleManager: {
		Role:       RoleManager,
		Scope:      ScopeTeam,
		Flags:      []string{ParamManagerFilter},
		ActorParam: ParamManagerID,
		Shape:      ShapeTeamFields,
	},
	RoleEmployee: {
		Role:       RoleEmployee,
		Scope:      ScopeSelf,
		Flags:      []string{ParamEmployeeFilter},
		ActorParam: ParamEmployeeID,
		Shape:      ShapeMaskSensitive,
	},
}

func PolicyFor(r Role) RolePolicy {
	if p, ok := rolePolicies[r]; ok {
		return p
	}
	return rolePolicies[RoleEmployee]
}

func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleHRManager, RoleManager, RoleEmployee}
}
