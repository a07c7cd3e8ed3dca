package routing

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

type RouteClass string

const (
	RouteClassPublicAPI RouteClass = "public_api"
	RouteClassOps       RouteClass = "ops"
	RouteClassDevOnly   RouteClass = "dev_only"
	RouteClassUnknown   RouteClass = "unknown"
)

var knownClasses = []RouteClass{RouteClassPublicAPI, RouteClassOps, RouteClassDevOnly}

// Classifier maps request paths to route classes using one allowlist
// entrypoint. Exact paths win over patterns; patterns are tried in file order.
type Classifier struct {
	exact    map[string]classifiedRoute
	patterns []classifiedRoute
}

type classifiedRoute struct {
	pattern pathPattern
	methods []string
	class   RouteClass
}

func (r classifiedRoute) allows(method string) bool {
	return method == "" || len(r.methods) == 0 || slices.Contains(r.methods, method)
}

func NewClassifier(a Allowlist, entrypoint string) (*Classifier, error) {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return nil, fmt.Errorf("allowlist: missing entrypoint %q", entrypoint)
	}
	if len(ep.Routes) == 0 {
		return nil, errors.New("allowlist: entrypoint routes empty")
	}

	c := &Classifier{exact: make(map[string]classifiedRoute, len(ep.Routes))}
	for _, r := range ep.Routes {
		if r.Path == "" || r.RouteClass == "" {
			return nil, errors.New("allowlist: invalid route")
		}
		class := RouteClass(r.RouteClass)
		if !slices.Contains(knownClasses, class) {
			return nil, fmt.Errorf("allowlist: unknown route_class %q for %s", r.RouteClass, r.Path)
		}
		methods := make([]string, 0, len(r.Methods))
		for _, m := range r.Methods {
			methods = append(methods, strings.ToUpper(strings.TrimSpace(m)))
		}
		cr := classifiedRoute{methods: methods, class: class}
		if p, ok := compilePattern(r.Path); ok {
			cr.pattern = p
			c.patterns = append(c.patterns, cr)
			continue
		}
		if strings.ContainsAny(r.Path, "{}") {
			return nil, fmt.Errorf("allowlist: invalid path pattern %q", r.Path)
		}
		c.exact[r.Path] = cr
	}
	return c, nil
}

func (c *Classifier) Classify(path string) RouteClass {
	return c.classify("", path)
}

// ClassifyRequest is the metrics label form of Classify. A route listed for
// other methods only falls through to the next candidate.
func (c *Classifier) ClassifyRequest(r *http.Request) string {
	return string(c.classify(r.Method, r.URL.Path))
}

func (c *Classifier) classify(method, path string) RouteClass {
	if r, ok := c.exact[path]; ok && r.allows(method) {
		return r.class
	}
	for _, r := range c.patterns {
		if _, ok := r.pattern.match(path); ok && r.allows(method) {
			return r.class
		}
	}
	if hasPrefixSegment(path, "/api/v1") {
		return RouteClassPublicAPI
	}
	return RouteClassUnknown
}

func hasPrefixSegment(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
