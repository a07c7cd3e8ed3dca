package unifiedapi

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/authz"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

type captureHandler struct {
	mu    sync.Mutex
	calls []Call
	resp  Response
	err   error
}

func (h *captureHandler) Handle(_ context.Context, call Call) (Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
	if h.err != nil {
		return Response{}, h.err
	}
	if !h.resp.Success && h.resp.Message == "" && h.resp.Data == nil {
		return OK([]any{}, nil), nil
	}
	return h.resp, nil
}

func (h *captureHandler) last(t *testing.T) Call {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		t.Fatal("handler not called")
	}
	return h.calls[len(h.calls)-1]
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

type fakeAuthorizer struct {
	allowed  bool
	enforced bool
	err      error
}

func (a fakeAuthorizer) Authorize(string, string, string, string) (bool, bool, error) {
	return a.allowed, a.enforced, a.err
}

type callRecord struct {
	domain  string
	role    string
	success bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []callRecord
}

func (r *fakeRecorder) ObserveCall(domain string, role string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, callRecord{domain: domain, role: role, success: success})
}

type testRig struct {
	router   *Router
	handlers map[Domain]*captureHandler
	recorder *fakeRecorder
}

func newTestRig(t *testing.T, a authorizer) testRig {
	t.Helper()
	handlers := map[Domain]*captureHandler{}
	opts := RouterOptions{
		Handlers:   map[Domain]DomainHandler{},
		Authorizer: a,
		Logger:     log.New(io.Discard, "", 0),
	}
	for _, r := range Catalog() {
		h := &captureHandler{}
		handlers[r.Domain] = h
		opts.Handlers[r.Domain] = h
	}
	rec := &fakeRecorder{}
	opts.Recorder = rec
	router, err := NewRouter(opts)
	if err != nil {
		t.Fatal(err)
	}
	return testRig{router: router, handlers: handlers, recorder: rec}
}

func TestNewRouter_RequiresEveryDomain(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(RouterOptions{Handlers: map[Domain]DomainHandler{
		DomainEmployees: HandlerFunc(func(context.Context, Call) (Response, error) { return OK(nil, nil), nil }),
	}})
	if err == nil {
		t.Fatal("expected missing handler error")
	}

	handlers := map[Domain]DomainHandler{}
	for _, r := range Catalog() {
		handlers[r.Domain] = &captureHandler{}
	}
	handlers[Domain("payroll")] = &captureHandler{}
	if _, err := NewRouter(RouterOptions{Handlers: handlers}); err == nil {
		t.Fatal("expected unknown domain error")
	}
}

func TestExecute_EmployeeScenario(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	resp := rig.router.Execute(context.Background(), Request{
		Endpoint: "/employees",
		Method:   MethodGet,
		Role:     RoleEmployee,
		TenantID: "T1",
		ActorID:  "e1",
	})
	if !resp.Success {
		t.Fatalf("resp=%+v", resp)
	}
	call := rig.handlers[DomainEmployees].last(t)
	if call.Params[ParamTenantID] != "T1" || call.Params[ParamScope] != "self" || call.Params[ParamEmployeeFilter] != true {
		t.Fatalf("params=%v", call.Params)
	}
	if call.Role != RoleEmployee || call.TenantID != "T1" || call.ActorID != "e1" {
		t.Fatalf("call=%+v", call)
	}
}

func TestExecute_UnknownEndpointFails(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	resp, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/nonexistent", Role: RoleSuperAdmin, TenantID: "T1"})
	if resp.Success || resp.Data != nil {
		t.Fatalf("resp=%+v", resp)
	}
	if !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("err=%v", err)
	}
	for d, h := range rig.handlers {
		if h.count() != 0 {
			t.Fatalf("domain %s handler called", d)
		}
	}
}

func TestExecute_AdminRejectedOnSystem(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, fakeAuthorizer{allowed: true, enforced: true})
	for _, role := range []Role{RoleAdmin, RoleHRManager, RoleManager, RoleEmployee, Role("unknown")} {
		resp, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/system/health", Role: role, TenantID: "T1"})
		if resp.Success {
			t.Fatalf("role=%s resp=%+v", role, resp)
		}
		if KindOf(err) != KindForbidden {
			t.Fatalf("role=%s err=%v", role, err)
		}
	}
	if rig.handlers[DomainSystem].count() != 0 {
		t.Fatal("system handler reached")
	}
}

func TestExecute_SuperAdminSystemIsCrossTenant(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	resp := rig.router.Execute(context.Background(), Request{Endpoint: "/system/tenants", Role: RoleSuperAdmin})
	if !resp.Success {
		t.Fatalf("resp=%+v", resp)
	}
	call := rig.handlers[DomainSystem].last(t)
	if call.Params.Has(ParamTenantID) {
		t.Fatalf("params=%v", call.Params)
	}
}

func TestExecute_MissingTenant(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	resp, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/employees", Role: RoleSuperAdmin})
	if resp.Success || !errors.Is(err, ErrNoTenantAvailable) {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestExecute_AuthorizerGate(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, fakeAuthorizer{allowed: false, enforced: true})
	_, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/employees", Method: MethodPost, Role: RoleManager, TenantID: "T1"})
	if KindOf(err) != KindForbidden {
		t.Fatalf("err=%v", err)
	}

	shadow := newTestRig(t, fakeAuthorizer{allowed: false, enforced: false})
	resp := shadow.router.Execute(context.Background(), Request{Endpoint: "/employees", Role: RoleManager, TenantID: "T1"})
	if !resp.Success {
		t.Fatalf("shadow mode must not block: %+v", resp)
	}

	broken := newTestRig(t, fakeAuthorizer{err: errors.New("boom")})
	_, err = broken.router.Dispatch(context.Background(), Request{Endpoint: "/employees", Role: RoleManager, TenantID: "T1"})
	if KindOf(err) != KindDownstream {
		t.Fatalf("err=%v", err)
	}
}

func TestExecute_WithCasbinPolicy(t *testing.T) {
	t.Parallel()

	a, err := authz.NewDefaultAuthorizer(authz.ModeEnforce)
	if err != nil {
		t.Fatal(err)
	}
	rig := newTestRig(t, a)
	ctx := context.Background()

	if resp := rig.router.Execute(ctx, Request{Endpoint: "/employees", Role: RoleEmployee, TenantID: "T1", ActorID: "e1"}); !resp.Success {
		t.Fatalf("resp=%+v", resp)
	}
	if _, err := rig.router.Dispatch(ctx, Request{Endpoint: "/employees", Method: MethodDelete, Role: RoleEmployee, TenantID: "T1"}); KindOf(err) != KindForbidden {
		t.Fatalf("err=%v", err)
	}
	if resp := rig.router.Execute(ctx, Request{Endpoint: "/system/health", Role: RoleSuperAdmin}); !resp.Success {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestExecute_DownstreamErrorBecomesFailedResponse(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	rig.handlers[DomainAnalytics].err = errors.New("connection refused")
	resp, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/analytics/dashboard", Role: RoleAdmin, TenantID: "T1"})
	if resp.Success || resp.Message != "connection refused" {
		t.Fatalf("resp=%+v", resp)
	}
	if KindOf(err) != KindDownstream {
		t.Fatalf("err=%v", err)
	}

	rig.handlers[DomainAnalytics].err = httperr.NewNotFound("employee", "e9")
	_, err = rig.router.Dispatch(context.Background(), Request{Endpoint: "/analytics/dashboard", Role: RoleAdmin, TenantID: "T1"})
	if KindOf(err) != KindNotFound {
		t.Fatalf("err=%v", err)
	}
}

func TestExecute_HandlerReportedFailure(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	rig.handlers[DomainGovernment].resp = Response{Success: false, Message: "qiwa: portal unavailable"}
	resp, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/government/qiwa/sync", Method: MethodPost, Role: RoleAdmin, TenantID: "T1"})
	if resp.Success || resp.Message != "qiwa: portal unavailable" {
		t.Fatalf("resp=%+v", resp)
	}
	if KindOf(err) != KindUnsuccessful {
		t.Fatalf("err=%v", err)
	}
}

func TestExecute_PanicRecovered(t *testing.T) {
	t.Parallel()

	handlers := map[Domain]DomainHandler{}
	for _, r := range Catalog() {
		handlers[r.Domain] = HandlerFunc(func(context.Context, Call) (Response, error) {
			panic("boom")
		})
	}
	router, err := NewRouter(RouterOptions{Handlers: handlers, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := router.Dispatch(context.Background(), Request{Endpoint: "/ai/recommendations", Role: RoleAdmin, TenantID: "T1"})
	if resp.Success || err == nil {
		t.Fatalf("resp=%+v err=%v", resp, err)
	}
}

func TestExecute_BadMethod(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	_, err := rig.router.Dispatch(context.Background(), Request{Endpoint: "/employees", Method: "TRACE", Role: RoleAdmin, TenantID: "T1"})
	if KindOf(err) != KindBadRequest {
		t.Fatalf("err=%v", err)
	}
}

func TestExecute_RecordsMetrics(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, nil)
	rig.router.Execute(context.Background(), Request{Endpoint: "/employees", Role: RoleAdmin, TenantID: "T1"})
	rig.router.Execute(context.Background(), Request{Endpoint: "/nope", Role: RoleAdmin, TenantID: "T1"})

	rig.recorder.mu.Lock()
	defer rig.recorder.mu.Unlock()
	if len(rig.recorder.records) != 2 {
		t.Fatalf("records=%v", rig.recorder.records)
	}
	if r := rig.recorder.records[0]; r.domain != "employees" || r.role != "admin" || !r.success {
		t.Fatalf("record=%+v", r)
	}
	if r := rig.recorder.records[1]; r.domain != "unknown" || r.success {
		t.Fatalf("record=%+v", r)
	}
}

func TestExecute_ConcurrentCallsIndependent(t *testing.T) {
	t.Parallel()

	failing := errors.New("gosi down")
	handlers := map[Domain]DomainHandler{}
	for _, r := range Catalog() {
		handlers[r.Domain] = &captureHandler{}
	}
	handlers[DomainGovernment] = HandlerFunc(func(_ context.Context, call Call) (Response, error) {
		if call.Endpoint.Suffix == "/gosi/sync" {
			return Response{}, failing
		}
		return OK(map[string]any{"adapter": "qiwa"}, nil), nil
	})
	router, err := NewRouter(RouterOptions{Handlers: handlers, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]Response, 2)
	for i, ep := range []string{"/government/gosi/sync", "/government/qiwa/sync"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = router.Execute(context.Background(), Request{Endpoint: ep, Method: MethodPost, Role: RoleAdmin, TenantID: "T1"})
		}()
	}
	wg.Wait()
	if results[0].Success {
		t.Fatalf("gosi=%+v", results[0])
	}
	if !results[1].Success {
		t.Fatalf("qiwa=%+v", results[1])
	}
}
