package unifiedapi

import (
	"errors"
	"math"
	"testing"
)

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path   string
		domain Domain
		suffix string
	}{
		{"/employees", DomainEmployees, ""},
		{"/employees/", DomainEmployees, ""},
		{"/employees/e1", DomainEmployees, "/e1"},
		{"/analytics/dashboard", DomainAnalytics, "/dashboard"},
		{"/ai/recommendations", DomainAI, "/recommendations"},
		{"/government/qiwa/sync", DomainGovernment, "/qiwa/sync"},
		{"/system/health", DomainSystem, "/health"},
	}
	for _, tc := range cases {
		ep, err := ResolveEndpoint(tc.path)
		if err != nil {
			t.Fatalf("path=%s err=%v", tc.path, err)
		}
		if ep.Domain() != tc.domain || ep.Suffix != tc.suffix {
			t.Fatalf("path=%s domain=%q suffix=%q", tc.path, ep.Domain(), ep.Suffix)
		}
	}
}

func TestResolveEndpoint_Unknown(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", "employees", "/nonexistent", "/employeesX", "/Employees", "/SYSTEM/health", "/", "/aix"} {
		if _, err := ResolveEndpoint(path); !errors.Is(err, ErrUnknownEndpoint) {
			t.Fatalf("path=%q err=%v", path, err)
		}
	}
}

func TestEndpoint_Segments(t *testing.T) {
	t.Parallel()

	ep, err := ResolveEndpoint("/government/gosi/sync")
	if err != nil {
		t.Fatal(err)
	}
	segs := ep.Segments()
	if len(segs) != 2 || segs[0] != "gosi" || segs[1] != "sync" {
		t.Fatalf("segs=%v", segs)
	}
	ep, _ = ResolveEndpoint("/employees")
	if len(ep.Segments()) != 0 {
		t.Fatalf("segs=%v", ep.Segments())
	}
}

func TestCatalog_DisjointNamespaces(t *testing.T) {
	t.Parallel()

	routes := Catalog()
	for i := range routes {
		for j := range routes {
			if i == j {
				continue
			}
			if hasPrefixSegment(routes[i].Prefix, routes[j].Prefix) {
				t.Fatalf("%s overlaps %s", routes[i].Prefix, routes[j].Prefix)
			}
		}
	}
	for _, r := range routes {
		if r.SuperAdminOnly && r.Domain != DomainSystem {
			t.Fatalf("unexpected super_admin-only domain %s", r.Domain)
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := map[string]Role{
		"super_admin": RoleSuperAdmin,
		" Admin ":     RoleAdmin,
		"hr_manager":  RoleHRManager,
		"manager":     RoleManager,
		"employee":    RoleEmployee,
		"":            RoleEmployee,
		"root":        RoleEmployee,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("in=%q got=%q want=%q", in, got, want)
		}
	}
	if PolicyFor(Role("ghost")).Scope != ScopeSelf {
		t.Fatal("unknown role must get the employee policy")
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	if m, err := ParseMethod("get"); err != nil || m != MethodGet {
		t.Fatalf("m=%q err=%v", m, err)
	}
	if m, err := ParseMethod(""); err != nil || m != MethodGet {
		t.Fatalf("m=%q err=%v", m, err)
	}
	if _, err := ParseMethod("TRACE"); KindOf(err) != KindBadRequest {
		t.Fatalf("err=%v", err)
	}
	if MethodGet.IsWrite() || !MethodPatch.IsWrite() {
		t.Fatal("IsWrite mismatch")
	}
}

func TestParams_Accessors(t *testing.T) {
	t.Parallel()

	p := Params{
		"s":     " x ",
		"list":  []string{"a", "b"},
		"b":     true,
		"bs":    "true",
		"bad":   "nope",
		"i":     3,
		"f":     float64(4),
		"is":    "5",
		"isbad": "x",
	}
	if p.String("s") != "x" || p.String("list") != "a" || p.String("missing") != "" || p.String("i") != "3" {
		t.Fatalf("String mismatch")
	}
	if !p.Bool("b") || !p.Bool("bs") || p.Bool("bad") || p.Bool("i") {
		t.Fatalf("Bool mismatch")
	}
	if p.Int("i", 0) != 3 || p.Int("f", 0) != 4 || p.Int("is", 0) != 5 || p.Int("isbad", 9) != 9 || p.Int("missing", 7) != 7 {
		t.Fatalf("Int mismatch")
	}
	if !p.Has("s") || p.Has("missing") {
		t.Fatalf("Has mismatch")
	}
}

func TestPageMeta_HasMore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total, page, limit int
		want               bool
	}{
		{4, 1, 3, true},
		{4, 2, 3, false},
		{6, 2, 3, false},
		{0, 1, 50, false},
		{4, 1, 0, false},
		{4, math.MaxInt, 200, false},
		{math.MaxInt, 1, 200, true},
	}
	for _, tc := range cases {
		if got := PageMeta(tc.total, tc.page, tc.limit).HasMore; got != tc.want {
			t.Fatalf("total=%d page=%d limit=%d got=%v", tc.total, tc.page, tc.limit, got)
		}
	}
}
