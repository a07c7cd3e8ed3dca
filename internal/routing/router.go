package routing

import (
	"log"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
)

type Router struct {
	classifier *Classifier
	routes     map[string]map[string]routeEntry
	prefixes   []prefixEntry
	logger     *log.Logger
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type prefixEntry struct {
	prefix string
	entry  routeEntry
}

func NewRouter(classifier *Classifier, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}
	return &Router{
		classifier: classifier,
		routes:     make(map[string]map[string]routeEntry),
		logger:     logger,
	}
}

func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = routeEntry{rc: rc, handler: r.recoverer(h)}
}

// HandlePrefix serves every method for paths below prefix. Exact routes win
// over prefixes; among prefixes the longest match wins.
func (r *Router) HandlePrefix(rc RouteClass, prefix string, h http.Handler) {
	prefix = strings.TrimRight(prefix, "/")
	r.prefixes = append(r.prefixes, prefixEntry{prefix: prefix, entry: routeEntry{rc: rc, handler: r.recoverer(h)}})
	sort.SliceStable(r.prefixes, func(i, j int) bool { return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix) })
}

func (r *Router) recoverer(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Printf("routing: panic method=%s path=%s err=%v\n%s", req.Method, req.URL.Path, rec, debug.Stack())
				WriteError(w, req, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		h.ServeHTTP(w, req)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if methods, ok := r.routes[req.URL.Path]; ok {
		entry, ok := methods[req.Method]
		if !ok {
			WriteError(w, req, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		entry.handler.ServeHTTP(w, req)
		return
	}
	for _, p := range r.prefixes {
		if hasPrefixSegment(req.URL.Path, p.prefix) {
			p.entry.handler.ServeHTTP(w, req)
			return
		}
	}
	WriteError(w, req, http.StatusNotFound, "not_found", "not found")
}

// Classify exposes the router's classifier for request instrumentation.
func (r *Router) Classify(req *http.Request) string {
	return r.classifier.ClassifyRequest(req)
}
