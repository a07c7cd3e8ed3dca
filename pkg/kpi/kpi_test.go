package kpi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Dashboard(t *testing.T) {
	t.Parallel()

	got, err := Default().Evaluate("dashboard", map[string]float64{
		"headcount":         50,
		"active":            40,
		"saudi":             13,
		"terminated_12m":    4,
		"avg_headcount_12m": 40,
		"tenure_days_total": 40 * 730.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"saudization_rate":     32.5,
		"attrition_rate":       10,
		"average_tenure_years": 2,
		"active_ratio":         80,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s got=%v want=%v", k, got[k], v)
		}
	}
}

func TestEvaluate_MissingInputsAreZero(t *testing.T) {
	t.Parallel()

	got, err := Default().Evaluate("performance", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("got=%v", got)
	}
	for k, v := range got {
		if v != 0 {
			t.Fatalf("%s=%v", k, v)
		}
	}
	if got, _ := Default().Evaluate("nope", nil); len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"version":   "version: 2\n",
		"yaml":      "version: [",
		"name":      "version: 1\nformulas:\n  - section: a\n    expr: '1.0'\n",
		"dup":       "version: 1\nformulas:\n  - {name: a, section: s, expr: '1.0'}\n  - {name: a, section: s, expr: '2.0'}\n",
		"syntax":    "version: 1\nformulas:\n  - {name: a, section: s, expr: 'm.x +'}\n",
		"type":      "version: 1\nformulas:\n  - {name: a, section: s, expr: 'true'}\n",
		"empty":     "version: 1\nformulas:\n  - {name: a, section: s, expr: ' '}\n",
		"undefined": "version: 1\nformulas:\n  - {name: a, section: s, expr: 'x * 1.0'}\n",
	}
	for name, in := range cases {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEvaluate_NonFiniteBecomesZero(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte("version: 1\nformulas:\n  - {name: r, section: s, expr: 'm.a / m.b'}\n"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Evaluate("s", map[string]float64{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if got["r"] != 0 {
		t.Fatalf("got=%v", got)
	}
	if names := s.Names("s"); len(names) != 1 || names[0] != "r" {
		t.Fatalf("names=%v", names)
	}
}

func TestReferencedKeys(t *testing.T) {
	t.Parallel()

	got := strings.Join(referencedKeys("m.a > 0.0 ? mm.b / m.c_2 : zm.d"), ",")
	if got != "a,c_2" {
		t.Fatalf("got=%q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nformulas:\n  - {name: one, section: s, expr: '1.0'}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KPI_PATH", path)
	s, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Evaluate("s", nil); got["one"] != 1 {
		t.Fatalf("got=%v", got)
	}

	t.Setenv("KPI_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected read error")
	}

	t.Setenv("KPI_PATH", "")
	s, err = LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Names("dashboard")) == 0 {
		t.Fatal("expected dashboard formulas")
	}
}
