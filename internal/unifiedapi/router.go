package unifiedapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/authz"
)

// Call is what a domain handler receives: the resolved endpoint and the
// parameter map after scoping.
type Call struct {
	Endpoint Endpoint
	Method   Method
	Data     json.RawMessage
	Params   Params
	Role     Role
	TenantID string
	ActorID  string
}

type DomainHandler interface {
	Handle(ctx context.Context, call Call) (Response, error)
}

type HandlerFunc func(ctx context.Context, call Call) (Response, error)

func (f HandlerFunc) Handle(ctx context.Context, call Call) (Response, error) { return f(ctx, call) }

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

type Recorder interface {
	ObserveCall(domain string, role string, success bool, d time.Duration)
}

type RouterOptions struct {
	Handlers map[Domain]DomainHandler
	// Authorizer is optional; the route-level super_admin gate applies either way.
	Authorizer authorizer
	Shaper     *Shaper
	Recorder   Recorder
	Logger     *log.Logger
	Now        func() time.Time
}

type Router struct {
	handlers map[Domain]DomainHandler
	authz    authorizer
	shaper   *Shaper
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time
}

// NewRouter fails unless every domain in the catalog has a handler.
func NewRouter(opts RouterOptions) (*Router, error) {
	handlers := make(map[Domain]DomainHandler, len(catalog))
	for _, r := range catalog {
		h, ok := opts.Handlers[r.Domain]
		if !ok || h == nil {
			return nil, fmt.Errorf("unifiedapi: missing handler for domain %q", r.Domain)
		}
		handlers[r.Domain] = h
	}
	for d := range opts.Handlers {
		if _, ok := handlers[d]; !ok {
			return nil, fmt.Errorf("unifiedapi: handler for unknown domain %q", d)
		}
	}

	shaper := opts.Shaper
	if shaper == nil {
		shaper = NewShaper(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Router{
		handlers: handlers,
		authz:    opts.Authorizer,
		shaper:   shaper,
		recorder: opts.Recorder,
		logger:   logger,
		now:      now,
	}, nil
}

// Execute always returns a structured response; errors and panics become
// {success:false}.
func (r *Router) Execute(ctx context.Context, req Request) Response {
	resp, _ := r.Dispatch(ctx, req)
	return resp
}

// Dispatch is Execute plus the underlying error, for callers that map error
// kinds onto a transport (HTTP status codes).
func (r *Router) Dispatch(ctx context.Context, req Request) (resp Response, err error) {
	start := r.now()
	role := ParseRole(string(req.Role))
	domain := "unknown"

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("unifiedapi: panic endpoint=%s err=%v\n%s", req.Endpoint, rec, debug.Stack())
			err = fmt.Errorf("unifiedapi: handler panic: %v", rec)
			resp = Fail(errors.New("internal error"))
		}
		if err == nil && !resp.Success {
			err = errUnsuccessful
			if resp.Message != "" {
				err = fmt.Errorf("%w: %s", errUnsuccessful, resp.Message)
			}
		}
		dur := r.now().Sub(start)
		if r.recorder != nil {
			r.recorder.ObserveCall(domain, string(role), resp.Success, dur)
		}
		r.logger.Printf("unifiedapi: endpoint=%s method=%s domain=%s role=%s tenant_id=%s success=%t kind=%s dur=%s",
			req.Endpoint, req.Method, domain, role, req.TenantID, resp.Success, KindOf(err), dur)
	}()

	method, err := ParseMethod(string(req.Method))
	if err != nil {
		return Fail(err), err
	}

	ep, err := ResolveEndpoint(req.Endpoint)
	if err != nil {
		return Fail(err), err
	}
	domain = string(ep.Domain())

	if ep.Route.SuperAdminOnly && role != RoleSuperAdmin {
		err = fmt.Errorf("%w: role %s may not call %s", ErrForbiddenScope, role, ep.Path)
		return Fail(err), err
	}

	tenantID := strings.TrimSpace(req.TenantID)
	crossTenant := PolicyFor(role).CrossTenant && ep.Route.SystemWide
	if tenantID == "" && !crossTenant {
		return Fail(ErrNoTenantAvailable), ErrNoTenantAvailable
	}

	if r.authz != nil {
		authzDomain := authz.DomainFromTenantID(tenantID)
		if crossTenant {
			authzDomain = authz.DomainGlobal
		}
		allowed, enforced, aerr := r.authz.Authorize(authz.SubjectFromRole(string(role)), authzDomain, string(ep.Domain()), authz.ActionForMethod(string(method)))
		if aerr != nil {
			err = fmt.Errorf("authz: %w", aerr)
			return Fail(err), err
		}
		if enforced && !allowed {
			err = fmt.Errorf("%w: role %s may not %s %s", ErrForbiddenScope, role, method, ep.Path)
			return Fail(err), err
		}
	}

	call := Call{
		Endpoint: ep,
		Method:   method,
		Data:     req.Data,
		Params:   ApplyScope(role, ep.Route, tenantID, strings.TrimSpace(req.ActorID), req.Params),
		Role:     role,
		TenantID: tenantID,
		ActorID:  strings.TrimSpace(req.ActorID),
	}

	resp, err = r.handlers[ep.Domain()].Handle(ctx, call)
	if err != nil {
		return Fail(err), err
	}
	return r.shaper.Shape(call, resp), nil
}
