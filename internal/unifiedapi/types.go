package unifiedapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return m, nil
	case "":
		return MethodGet, nil
	default:
		return "", httperr.NewBadRequest(fmt.Sprintf("unsupported method %q", raw))
	}
}

func (m Method) IsWrite() bool { return m != MethodGet }

// Request is one call into the unified API. TenantID is the tenant already
// resolved for the caller; ActorID identifies the caller's own employee record.
type Request struct {
	Endpoint string          `json:"endpoint"`
	Method   Method          `json:"method"`
	Data     json.RawMessage `json:"data,omitempty"`
	Params   Params          `json:"params,omitempty"`
	Role     Role            `json:"userRole"`
	TenantID string          `json:"tenantId"`
	ActorID  string          `json:"actorId,omitempty"`
}

type Meta struct {
	Total   int  `json:"total,omitempty"`
	Page    int  `json:"page,omitempty"`
	Limit   int  `json:"limit,omitempty"`
	HasMore bool `json:"hasMore,omitempty"`

	Scope  string         `json:"scope,omitempty"`
	System map[string]any `json:"system,omitempty"`
}

type Response struct {
	Data    any    `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func OK(data any, meta *Meta) Response {
	return Response{Data: data, Meta: meta, Success: true}
}

func Fail(err error) Response {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return Response{Data: nil, Success: false, Message: msg}
}

// PageMeta builds pagination metadata for a page of a total result set.
func PageMeta(total int, page int, limit int) *Meta {
	hasMore := false
	if limit > 0 && total > 0 {
		// page*limit < total without the multiplication.
		hasMore = page < (total-1)/limit+1
	}
	return &Meta{Total: total, Page: page, Limit: limit, HasMore: hasMore}
}

type Params map[string]any

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) == 0 {
			return ""
		}
		return strings.TrimSpace(v[0])
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return def
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Has reports whether key is present, including when its value is empty.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
