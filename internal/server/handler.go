package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/authn"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/obs"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/routing"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/tenancy"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

const (
	apiPrefix            = "/api/v1"
	tenantOverrideHeader = "X-Tenant-Override"
	maxBodyBytes         = 1 << 20
)

var errUnauthenticated = errors.New("authentication required")

type sessionSource interface {
	SessionFromRequest(r *http.Request) (authn.Session, error)
}

type tenantResolver interface {
	Resolve(ctx context.Context, userID string) (tenancy.Tenant, error)
	Invalidate(ctx context.Context, userID string) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, req unifiedapi.Request) (unifiedapi.Response, error)
}

type HandlerOptions struct {
	Sessions sessionSource
	Tenants  tenantResolver
	API      dispatcher
	Metrics  *obs.Metrics
	// Allowlist defaults to ALLOWLIST_PATH or config/routing/allowlist.yaml.
	Allowlist *routing.Allowlist
	// DemoMode lets anonymous callers in as employees of the demo tenant.
	DemoMode bool
	Logger   *log.Logger
}

type apiHandler struct {
	sessions sessionSource
	tenants  tenantResolver
	api      dispatcher
	metrics  *obs.Metrics
	demoMode bool
	logger   *log.Logger
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	if opts.Sessions == nil || opts.Tenants == nil || opts.API == nil {
		return nil, errors.New("server: sessions, tenants and api are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = obs.NewMetrics()
	}

	var a routing.Allowlist
	if opts.Allowlist != nil {
		a = *opts.Allowlist
	} else {
		loaded, err := routing.LoadAllowlistFromEnv()
		if err != nil {
			return nil, err
		}
		a = loaded
	}
	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}
	router := routing.NewRouter(classifier, logger)

	h := &apiHandler{
		sessions: opts.Sessions,
		tenants:  opts.Tenants,
		api:      opts.API,
		metrics:  metrics,
		demoMode: opts.DemoMode,
		logger:   logger,
	}

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		routing.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/metrics", metrics.Handler())
	router.Handle(routing.RouteClassDevOnly, http.MethodPost, apiPrefix+"/tenant:clear", http.HandlerFunc(h.clearTenant))
	router.HandlePrefix(routing.RouteClassPublicAPI, apiPrefix, http.HandlerFunc(h.serveAPI))

	return metrics.Instrument(router.Classify, router), nil
}

// TenantOverride reports the development tenant override carried by the
// request. The resolver only consults it when overrides are enabled.
func TenantOverride(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantOverrideKey{}).(string)
	return v, ok && v != ""
}

type tenantOverrideKey struct{}

func withTenantOverride(ctx context.Context, r *http.Request) context.Context {
	v := strings.TrimSpace(r.Header.Get(tenantOverrideHeader))
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, tenantOverrideKey{}, v)
}

// caller authenticates the request. Invalid tokens degrade to an anonymous
// session; anonymous sessions pass only in demo mode.
func (h *apiHandler) caller(r *http.Request) (authn.Session, context.Context, error) {
	s, err := h.sessions.SessionFromRequest(r)
	if err != nil {
		h.logger.Printf("server: invalid session path=%s err=%v", r.URL.Path, err)
		s = authn.Session{}
	}
	if s.Anonymous() && !h.demoMode {
		return authn.Session{}, nil, errUnauthenticated
	}
	ctx := authn.WithSession(r.Context(), s)
	return s, withTenantOverride(ctx, r), nil
}

func (h *apiHandler) serveAPI(w http.ResponseWriter, r *http.Request) {
	traceID := routing.TraceID(r)
	w.Header().Set("X-Request-ID", traceID)

	session, ctx, err := h.caller(r)
	if err != nil {
		routing.WriteJSON(w, http.StatusUnauthorized, unifiedapi.Fail(err))
		return
	}

	tenant, err := h.tenants.Resolve(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, tenancy.ErrNoTenantAvailable) {
			err = fmt.Errorf("%w: %v", unifiedapi.ErrNoTenantAvailable, err)
		}
		h.logger.Printf("server: tenant resolution failed user_id=%s err=%v trace_id=%s", session.UserID, err, traceID)
		routing.WriteJSON(w, statusForError(err), unifiedapi.Fail(err))
		return
	}
	role, err := h.effectiveRole(session, tenant)
	if err != nil {
		h.logger.Printf("server: demo fallback refused user_id=%s role=%s trace_id=%s", session.UserID, session.Role, traceID)
		routing.WriteJSON(w, statusForError(err), unifiedapi.Fail(err))
		return
	}
	h.metrics.ObserveTenantResolution(string(tenant.Mode))
	w.Header().Set("X-Tenant-Mode", string(tenant.Mode))

	data, err := readBody(w, r)
	if err != nil {
		routing.WriteJSON(w, http.StatusBadRequest, unifiedapi.Fail(err))
		return
	}

	endpoint := strings.TrimPrefix(r.URL.Path, apiPrefix)
	if endpoint == "" {
		endpoint = "/"
	}

	resp, err := h.api.Dispatch(ctx, unifiedapi.Request{
		Endpoint: endpoint,
		Method:   unifiedapi.Method(r.Method),
		Data:     data,
		Params:   paramsFromQuery(r),
		Role:     role,
		TenantID: tenant.ID,
		ActorID:  session.ActorID(),
	})
	routing.WriteJSON(w, statusForError(err), resp)
}

// effectiveRole is the role the call runs with. The demo tenant is a shared
// read-only preview: whoever lands there acts as an employee, and outside
// demo mode only super_admin may land there at all (system routes do not
// need a membership).
func (h *apiHandler) effectiveRole(s authn.Session, t tenancy.Tenant) (unifiedapi.Role, error) {
	role := unifiedapi.Role(s.Role)
	if s.Anonymous() {
		role = unifiedapi.RoleEmployee
	}
	if t.Mode != tenancy.ModeDemo || role == unifiedapi.RoleSuperAdmin {
		return role, nil
	}
	if !h.demoMode {
		return "", fmt.Errorf("%w: user %s has no tenant membership", unifiedapi.ErrNoTenantAvailable, s.UserID)
	}
	return unifiedapi.RoleEmployee, nil
}

func (h *apiHandler) clearTenant(w http.ResponseWriter, r *http.Request) {
	session, ctx, err := h.caller(r)
	if err != nil {
		routing.WriteJSON(w, http.StatusUnauthorized, unifiedapi.Fail(err))
		return
	}
	if err := h.tenants.Invalidate(ctx, session.UserID); err != nil {
		h.logger.Printf("server: tenant clear failed user_id=%s err=%v", session.UserID, err)
		routing.WriteJSON(w, http.StatusInternalServerError, unifiedapi.Fail(err))
		return
	}
	routing.WriteJSON(w, http.StatusOK, unifiedapi.OK(map[string]bool{"cleared": true}, nil))
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, httperr.NewBadRequest("request body too large or unreadable")
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if !json.Valid(b) {
		return nil, httperr.NewBadRequest("request body is not valid JSON")
	}
	return json.RawMessage(b), nil
}

func paramsFromQuery(r *http.Request) unifiedapi.Params {
	q := r.URL.Query()
	out := make(unifiedapi.Params, len(q))
	for k, vals := range q {
		switch len(vals) {
		case 0:
		case 1:
			out[k] = vals[0]
		default:
			out[k] = append([]string(nil), vals...)
		}
	}
	return out
}

func statusForError(err error) int {
	switch unifiedapi.KindOf(err) {
	case unifiedapi.KindNone:
		return http.StatusOK
	case unifiedapi.KindBadRequest:
		return http.StatusBadRequest
	case unifiedapi.KindForbidden, unifiedapi.KindNoTenant:
		return http.StatusForbidden
	case unifiedapi.KindUnknown, unifiedapi.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
