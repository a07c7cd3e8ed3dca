package authz

import (
	_ "embed"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

func ModeFromEnv() (Mode, error) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv("AUTHZ_MODE")))
	if raw == "" {
		return ModeEnforce, nil
	}
	switch Mode(raw) {
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	case ModeDisabled:
		if os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") != "1" {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

func NewAuthorizer(modelPath string, policyPath string, mode Mode) (*Authorizer, error) {
	adapter := fileadapter.NewAdapter(policyPath)
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(adapter)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// NewDefaultAuthorizer builds an authorizer from the role policy compiled into
// the binary.
func NewDefaultAuthorizer(mode Mode) (*Authorizer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(defaultPolicy))
	if err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

// LoadFromEnv uses AUTHZ_MODEL_PATH/AUTHZ_POLICY_PATH when both are set and the
// compiled-in policy otherwise.
func LoadFromEnv() (*Authorizer, error) {
	mode, err := ModeFromEnv()
	if err != nil {
		return nil, err
	}
	modelPath := strings.TrimSpace(os.Getenv("AUTHZ_MODEL_PATH"))
	policyPath := strings.TrimSpace(os.Getenv("AUTHZ_POLICY_PATH"))
	switch {
	case modelPath != "" && policyPath != "":
		return NewAuthorizer(modelPath, policyPath, mode)
	case modelPath != "" || policyPath != "":
		return nil, errors.New("authz: AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH must be set together")
	default:
		return NewDefaultAuthorizer(mode)
	}
}

func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = RoleAnonymous
	}
	return "role:" + role
}

func DomainFromTenantID(tenantID string) string {
	d := strings.ToLower(strings.TrimSpace(tenantID))
	if d == "" {
		return DomainGlobal
	}
	return d
}

func ActionForMethod(method string) string {
	if strings.EqualFold(method, http.MethodGet) {
		return ActionRead
	}
	return ActionWrite
}

func (a *Authorizer) Mode() Mode { return a.mode }

func (a *Authorizer) Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error) {
	switch a.mode {
	case ModeDisabled:
		return true, false, nil
	case ModeShadow:
		ok, err := a.enforcer.Enforce(subject, domain, object, action)
		if err != nil {
			return false, false, err
		}
		return ok, false, nil
	case ModeEnforce:
		ok, err := a.enforcer.Enforce(subject, domain, object, action)
		if err != nil {
			return false, true, err
		}
		return ok, true, nil
	default:
		return false, false, errors.New("authz: unknown mode")
	}
}
