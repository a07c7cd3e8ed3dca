package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	a := Allowlist{
		Version: 1,
		Entrypoints: map[string]Entrypoint{
			"server": {Routes: []Route{
				{Path: "/health", Methods: []string{"GET"}, RouteClass: "ops"},
				{Path: "/api/v1/tenant:clear", Methods: []string{"POST"}, RouteClass: "dev_only"},
				{Path: "/debug/{name}", Methods: []string{"GET"}, RouteClass: "dev_only"},
				{Path: "/internal/{rest...}", Methods: []string{"get"}, RouteClass: "ops"},
			}},
		},
	}
	c, err := NewClassifier(a, "server")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClassifier_SegmentBoundary(t *testing.T) {
	t.Parallel()

	c := testClassifier(t)
	if got := c.Classify("/api/v1"); got != RouteClassPublicAPI {
		t.Fatalf("got=%q", got)
	}
	if got := c.Classify("/api/v1/employees/42"); got != RouteClassPublicAPI {
		t.Fatalf("got=%q", got)
	}
	if got := c.Classify("/api/v1x"); got != RouteClassUnknown {
		t.Fatalf("got=%q", got)
	}
	if got := c.Classify("/"); got != RouteClassUnknown {
		t.Fatalf("got=%q", got)
	}
}

func TestClassifier_AllowlistWins(t *testing.T) {
	t.Parallel()

	c := testClassifier(t)
	cases := map[string]RouteClass{
		"/health":              RouteClassOps,
		"/api/v1/tenant:clear": RouteClassDevOnly,
		"/debug/vars":          RouteClassDevOnly,
		"/debug/vars/x":        RouteClassUnknown,
		"/internal/a/b":        RouteClassOps,
	}
	for path, want := range cases {
		if got := c.Classify(path); got != want {
			t.Fatalf("path=%s got=%q want=%q", path, got, want)
		}
	}
}

func TestClassifier_ClassifyRequest(t *testing.T) {
	t.Parallel()

	c := testClassifier(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard?x=1", nil)
	if got := c.ClassifyRequest(req); got != "public_api" {
		t.Fatalf("got=%q", got)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/tenant:clear", nil)
	if got := c.ClassifyRequest(get); got != "public_api" {
		t.Fatalf("method mismatch should fall through, got=%q", got)
	}
	post := httptest.NewRequest(http.MethodPost, "/api/v1/tenant:clear", nil)
	if got := c.ClassifyRequest(post); got != "dev_only" {
		t.Fatalf("got=%q", got)
	}
	if got := c.ClassifyRequest(httptest.NewRequest(http.MethodGet, "/internal/x", nil)); got != "ops" {
		t.Fatalf("lowercase methods should normalize, got=%q", got)
	}
}

func TestNewClassifier_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewClassifier(Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{}}, "server"); err == nil {
		t.Fatal("expected missing entrypoint error")
	}
	if _, err := NewClassifier(Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{"server": {Routes: nil}}}, "server"); err == nil {
		t.Fatal("expected empty routes error")
	}
	if _, err := NewClassifier(Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{"server": {Routes: []Route{{}}}}}, "server"); err == nil {
		t.Fatal("expected invalid route error")
	}
	bad := []Route{
		{Path: "/x", RouteClass: "admin"},
		{Path: "/x/{id", RouteClass: "ops"},
	}
	for _, r := range bad {
		a := Allowlist{Version: 1, Entrypoints: map[string]Entrypoint{"server": {Routes: []Route{r}}}}
		if _, err := NewClassifier(a, "server"); err == nil {
			t.Fatalf("route=%+v expected error", r)
		}
	}
}
