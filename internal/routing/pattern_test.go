package routing

import "testing"

func TestCompilePattern_Rejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"/health",
		"endpoint/{id}",
		"/employees/{id",
		"/employees/{}/reviews",
		"/employees/{id}x",
		"/employees//{id}",
		"/api/v1/{...}",
		"/api/v1/{endpoint...}/tail",
	} {
		if _, ok := compilePattern(raw); ok {
			t.Fatalf("raw=%q expected reject", raw)
		}
	}
}

func TestPathPattern_Match(t *testing.T) {
	t.Parallel()

	p, ok := compilePattern("/employees/{id}/reviews")
	if !ok {
		t.Fatal("expected ok")
	}
	params, ok := p.match("/employees/42/reviews")
	if !ok || params["id"] != "42" {
		t.Fatalf("ok=%v params=%v", ok, params)
	}
	for _, path := range []string{"/employees/42", "/employees//reviews", "/employees/42/salary"} {
		if _, ok := p.match(path); ok {
			t.Fatalf("path=%q expected no match", path)
		}
	}
	if _, ok := (pathPattern{}).match("/employees/42/reviews"); ok {
		t.Fatal("zero value must not match")
	}
}

func TestPathPattern_RestSegment(t *testing.T) {
	t.Parallel()

	p, ok := compilePattern("/api/v1/{endpoint...}")
	if !ok {
		t.Fatal("expected ok")
	}
	cases := map[string]string{
		"/api/v1/employees":              "employees",
		"/api/v1/employees/42":           "employees/42",
		"/api/v1/government/sync/gosi":   "government/sync/gosi",
		"/api/v1/analytics/dashboard/":   "",
		"/api/v1":                        "",
		"/api/v2/employees":              "",
		"/api/v1/employees//performance": "",
	}
	for path, want := range cases {
		params, ok := p.match(path)
		if want == "" {
			if ok {
				t.Fatalf("path=%q expected no match, got=%v", path, params)
			}
			continue
		}
		if !ok || params["endpoint"] != want {
			t.Fatalf("path=%q ok=%v params=%v", path, ok, params)
		}
	}
}
