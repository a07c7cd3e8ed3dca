package authz

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleHRManager  = "hr_manager"
	RoleManager    = "manager"
	RoleEmployee   = "employee"
	RoleAnonymous  = "anonymous"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// DomainGlobal is the casbin domain used for requests that carry no tenant
// (super_admin on system-wide routes).
const DomainGlobal = "global"

const (
	ObjectEmployees  = "employees"
	ObjectAnalytics  = "analytics"
	ObjectAI         = "ai"
	ObjectGovernment = "government"
	ObjectSystem     = "system"
)
