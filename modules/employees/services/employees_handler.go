package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strings"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/unifiedapi"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/ports"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/modules/employees/domain/types"
	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// EmployeesHandler serves /employees and /employees/{id}.
type EmployeesHandler struct {
	store ports.EmployeeStore
}

func NewEmployeesHandler(store ports.EmployeeStore) *EmployeesHandler {
	return &EmployeesHandler{store: store}
}

func (h *EmployeesHandler) Handle(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	segs := call.Endpoint.Segments()
	if len(segs) > 1 {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s", unifiedapi.ErrUnknownEndpoint, call.Endpoint.Path)
	}
	id := ""
	if len(segs) == 1 {
		id = segs[0]
	}

	scope := call.Params.String(unifiedapi.ParamScope)
	if call.Method.IsWrite() && (scope == string(unifiedapi.ScopeSelf) || scope == string(unifiedapi.ScopeTeam)) {
		return unifiedapi.Response{}, fmt.Errorf("%w: %s scope is read-only", unifiedapi.ErrForbiddenScope, scope)
	}

	switch call.Method {
	case unifiedapi.MethodGet:
		if id == "" {
			return h.list(ctx, call)
		}
		return h.get(ctx, call, id)
	case unifiedapi.MethodPost:
		if id != "" {
			return unifiedapi.Response{}, httperr.NewBadRequest("POST does not take an employee id")
		}
		return h.create(ctx, call)
	case unifiedapi.MethodPut, unifiedapi.MethodPatch:
		if id == "" {
			return unifiedapi.Response{}, httperr.NewBadRequest("employee id is required")
		}
		return h.update(ctx, call, id)
	case unifiedapi.MethodDelete:
		if id == "" {
			return unifiedapi.Response{}, httperr.NewBadRequest("employee id is required")
		}
		if err := h.store.Delete(ctx, tenantOf(call), id); err != nil {
			return unifiedapi.Response{}, err
		}
		return unifiedapi.OK(map[string]any{"id": id, "deleted": true}, nil), nil
	default:
		return unifiedapi.Response{}, httperr.NewBadRequest("unsupported method")
	}
}

func tenantOf(call unifiedapi.Call) string {
	if t := call.Params.String(unifiedapi.ParamTenantID); t != "" {
		return t
	}
	return call.TenantID
}

// queryFromParams turns scoped params into a store query. ok is false when
// the scope requires an actor the caller does not have, which matches nothing.
func queryFromParams(call unifiedapi.Call) (q ports.Query, ok bool) {
	p := call.Params
	q = ports.Query{
		TenantID:     tenantOf(call),
		DepartmentID: p.String("department_id"),
		Status:       p.String("status"),
		Search:       p.String("search"),
		Page:         max(p.Int("page", 1), 1),
		Limit:        p.Int("limit", DefaultPageLimit),
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	q.Limit = min(q.Limit, MaxPageLimit)
	// page*limit must stay representable; anything past it is an empty page.
	q.Page = min(q.Page, math.MaxInt/q.Limit)

	switch unifiedapi.Scope(p.String(unifiedapi.ParamScope)) {
	case unifiedapi.ScopeSelf:
		q.EmployeeID = p.String(unifiedapi.ParamEmployeeID)
		return q, q.EmployeeID != ""
	case unifiedapi.ScopeTeam:
		q.ManagerID = p.String(unifiedapi.ParamManagerID)
		return q, q.ManagerID != ""
	}
	return q, true
}

func (h *EmployeesHandler) list(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	q, ok := queryFromParams(call)
	if !ok {
		return unifiedapi.OK([]types.Employee{}, unifiedapi.PageMeta(0, q.Page, q.Limit)), nil
	}
	items, total, err := h.store.List(ctx, q)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	return unifiedapi.OK(items, unifiedapi.PageMeta(total, q.Page, q.Limit)), nil
}

func (h *EmployeesHandler) get(ctx context.Context, call unifiedapi.Call, id string) (unifiedapi.Response, error) {
	q, ok := queryFromParams(call)
	if !ok {
		return unifiedapi.Response{}, httperr.NewNotFound("employee", id)
	}
	e, err := h.store.Get(ctx, q.TenantID, id)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	if q.EmployeeID != "" && e.ID != q.EmployeeID {
		return unifiedapi.Response{}, httperr.NewNotFound("employee", id)
	}
	if q.ManagerID != "" && e.ManagerID != q.ManagerID && e.ID != q.ManagerID {
		return unifiedapi.Response{}, httperr.NewNotFound("employee", id)
	}
	return unifiedapi.OK(e, nil), nil
}

func decodeInput(raw json.RawMessage) (types.EmployeeInput, error) {
	var in types.EmployeeInput
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return in, httperr.NewBadRequest("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, httperr.NewBadRequest("invalid employee payload: " + err.Error())
	}
	return in, validateInput(in)
}

func validateInput(in types.EmployeeInput) error {
	if in.FullName != nil && strings.TrimSpace(*in.FullName) == "" {
		return httperr.NewBadRequest("full_name must not be empty")
	}
	if in.Email != nil && *in.Email != "" {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return httperr.NewBadRequest("email is invalid")
		}
	}
	if in.Status != nil && !types.ValidStatus(*in.Status) {
		return httperr.NewBadRequest("status is invalid")
	}
	if in.Salary != nil && *in.Salary < 0 {
		return httperr.NewBadRequest("salary must not be negative")
	}
	return nil
}

func (h *EmployeesHandler) create(ctx context.Context, call unifiedapi.Call) (unifiedapi.Response, error) {
	in, err := decodeInput(call.Data)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	if in.FullName == nil {
		return unifiedapi.Response{}, httperr.NewBadRequest("full_name is required")
	}
	if in.EmployeeNumber == nil || strings.TrimSpace(*in.EmployeeNumber) == "" {
		return unifiedapi.Response{}, httperr.NewBadRequest("employee_number is required")
	}
	e, err := h.store.Create(ctx, tenantOf(call), in)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	return unifiedapi.OK(e, nil), nil
}

func (h *EmployeesHandler) update(ctx context.Context, call unifiedapi.Call, id string) (unifiedapi.Response, error) {
	in, err := decodeInput(call.Data)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	e, err := h.store.Update(ctx, tenantOf(call), id, in)
	if err != nil {
		return unifiedapi.Response{}, err
	}
	return unifiedapi.OK(e, nil), nil
}
