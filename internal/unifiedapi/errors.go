package unifiedapi

import (
	"errors"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/httperr"
)

var (
	ErrNoTenantAvailable = errors.New("no tenant available")
	ErrUnknownEndpoint   = errors.New("unknown endpoint")
	ErrForbiddenScope    = errors.New("forbidden scope")
)

type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNoTenant     ErrorKind = "no_tenant"
	KindUnknown      ErrorKind = "unknown_endpoint"
	KindForbidden    ErrorKind = "forbidden"
	KindBadRequest   ErrorKind = "bad_request"
	KindNotFound     ErrorKind = "not_found"
	KindDownstream   ErrorKind = "downstream"
	KindUnsuccessful ErrorKind = "unsuccessful"
)

// errUnsuccessful marks a response a handler itself reported as failed.
var errUnsuccessful = errors.New("handler reported failure")

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoTenantAvailable):
		return KindNoTenant
	case errors.Is(err, ErrUnknownEndpoint):
		return KindUnknown
	case errors.Is(err, ErrForbiddenScope):
		return KindForbidden
	case errors.Is(err, errUnsuccessful):
		return KindUnsuccessful
	case httperr.IsBadRequest(err):
		return KindBadRequest
	case httperr.IsNotFound(err):
		return KindNotFound
	default:
		return KindDownstream
	}
}
