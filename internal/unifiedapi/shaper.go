package unifiedapi

import (
	"encoding/json"
	"strings"
)

// StatsSource supplies the system metrics attached for super_admin callers.
type StatsSource interface {
	Snapshot() map[string]any
}

type Shaper struct {
	stats StatsSource
}

func NewShaper(stats StatsSource) *Shaper {
	return &Shaper{stats: stats}
}

var sensitiveEmployeeFields = []string{"national_id", "salary", "phone", "iban"}

var teamEmployeeFields = map[string]bool{
	"id":              true,
	"employee_number": true,
	"full_name":       true,
	"full_name_ar":    true,
	"email":           true,
	"department_id":   true,
	"manager_id":      true,
	"position":        true,
	"status":          true,
	"hire_date":       true,
}

// Shape applies the role's shaping rule to a successful response. Failed
// responses and roles without a rule pass through unchanged.
func (s *Shaper) Shape(call Call, resp Response) Response {
	if !resp.Success {
		return resp
	}
	policy := PolicyFor(call.Role)
	switch policy.Shape {
	case ShapeMaskSensitive:
		if call.Endpoint.Domain() == DomainEmployees {
			resp.Data = mapRecords(resp.Data, func(rec map[string]any) map[string]any {
				return maskRecord(rec, call.ActorID)
			})
		}
	case ShapeTeamFields:
		if call.Endpoint.Domain() == DomainEmployees {
			resp.Data = mapRecords(resp.Data, func(rec map[string]any) map[string]any {
				return restrictRecord(rec, call.ActorID)
			})
		}
	case ShapeHRDetail, ShapeAdminDetail:
		meta := ensureMeta(resp.Meta)
		meta.Scope = string(policy.Scope)
		resp.Meta = meta
	case ShapeSystemMetrics:
		if s.stats != nil {
			meta := ensureMeta(resp.Meta)
			meta.System = s.stats.Snapshot()
			resp.Meta = meta
		}
	}
	return resp
}

func ensureMeta(m *Meta) *Meta {
	if m == nil {
		return &Meta{}
	}
	cp := *m
	return &cp
}

// mapRecords runs fn over every JSON object in data (a single object or a list
// of objects). Non-object data is returned untouched.
func mapRecords(data any, fn func(map[string]any) map[string]any) any {
	if data == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return data
	}
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return data
	}
	switch trimmed[0] {
	case '{':
		var rec map[string]any
		if err := json.Unmarshal(b, &rec); err != nil {
			return data
		}
		return fn(rec)
	case '[':
		var list []any
		if err := json.Unmarshal(b, &list); err != nil {
			return data
		}
		for i, item := range list {
			if rec, ok := item.(map[string]any); ok {
				list[i] = fn(rec)
			}
		}
		return list
	default:
		return data
	}
}

func maskRecord(rec map[string]any, actorID string) map[string]any {
	if id, _ := rec["id"].(string); id != "" && id == actorID {
		return rec
	}
	for _, f := range sensitiveEmployeeFields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString {
			rec[f] = maskString(s)
			continue
		}
		rec[f] = nil
	}
	return rec
}

func restrictRecord(rec map[string]any, actorID string) map[string]any {
	if id, _ := rec["id"].(string); id != "" && id == actorID {
		return rec
	}
	for k := range rec {
		if !teamEmployeeFields[k] {
			delete(rec, k)
		}
	}
	return rec
}

// maskString keeps the last four characters of values long enough to stay
// unidentifiable.
func maskString(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
