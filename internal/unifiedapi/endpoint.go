package unifiedapi

import (
	"fmt"
	"strings"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/pkg/authz"
)

type Domain string

const (
	DomainEmployees  Domain = authz.ObjectEmployees
	DomainAnalytics  Domain = authz.ObjectAnalytics
	DomainAI         Domain = authz.ObjectAI
	DomainGovernment Domain = authz.ObjectGovernment
	DomainSystem     Domain = authz.ObjectSystem
)

// Route is the metadata a domain attaches to its namespace.
type Route struct {
	Domain Domain
	Prefix string
	// SystemWide routes are not bound to a single tenant when the caller's
	// role policy allows cross-tenant access.
	SystemWide bool
	// SuperAdminOnly routes are rejected for every other role before dispatch.
	SuperAdminOnly bool
}

// Each domain owns a disjoint namespace, so lookup order is irrelevant.
var catalog = []Route{
	{Domain: DomainEmployees, Prefix: "/employees"},
	{Domain: DomainAnalytics, Prefix: "/analytics"},
	{Domain: DomainAI, Prefix: "/ai"},
	{Domain: DomainGovernment, Prefix: "/government"},
	{Domain: DomainSystem, Prefix: "/system", SystemWide: true, SuperAdminOnly: true},
}

func Catalog() []Route {
	out := make([]Route, len(catalog))
	copy(out, catalog)
	return out
}

type Endpoint struct {
	Route Route
	Path  string
	// Suffix is the path below the domain prefix, "" for the prefix itself.
	Suffix string
}

func (e Endpoint) Domain() Domain { return e.Route.Domain }

// Segments splits Suffix into its non-empty path segments.
func (e Endpoint) Segments() []string {
	return splitPathSegments(e.Suffix)
}

// ResolveEndpoint matches path against the catalog. Matching is case-sensitive
// and respects segment boundaries.
func ResolveEndpoint(path string) (Endpoint, error) {
	path = strings.TrimSpace(path)
	if path == "" || path[0] != '/' {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, path)
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	for _, r := range catalog {
		if hasPrefixSegment(path, r.Prefix) {
			return Endpoint{Route: r, Path: path, Suffix: strings.TrimPrefix(path, r.Prefix)}, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, path)
}

func hasPrefixSegment(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

func splitPathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
