package obs

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCallAndSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.ObserveCall("employees", "employee", true, 10*time.Millisecond)
	m.ObserveCall("employees", "employee", false, time.Millisecond)
	m.ObserveCall("system", "super_admin", true, time.Millisecond)
	m.ObserveSync("qiwa", true, time.Second)
	m.ObserveSync("gosi", false, time.Second)

	if got := testutil.ToFloat64(m.callsTotal.WithLabelValues("employees", "employee", "true")); got != 1 {
		t.Fatalf("got=%v", got)
	}

	snap := m.Snapshot()
	if snap["requests_total"] != 3.0 || snap["requests_failed"] != 1.0 {
		t.Fatalf("snap=%v", snap)
	}
	byRole := snap["requests_by_role"].(map[string]float64)
	if byRole["employee"] != 2 || byRole["super_admin"] != 1 {
		t.Fatalf("byRole=%v", byRole)
	}
	syncs := snap["government_syncs"].(map[string]float64)
	if syncs["qiwa"] != 1 || syncs["gosi"] != 1 {
		t.Fatalf("syncs=%v", syncs)
	}
}

func TestSnapshot_Empty(t *testing.T) {
	t.Parallel()

	snap := NewMetrics().Snapshot()
	if snap["requests_total"] != 0.0 {
		t.Fatalf("snap=%v", snap)
	}
	if _, ok := snap["uptime_seconds"].(float64); !ok {
		t.Fatalf("uptime=%T", snap["uptime_seconds"])
	}
}

func TestInstrumentAndHandler(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	h := m.Instrument(func(*http.Request) string { return "api" }, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/employees/e1", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("code=%d", rec.Code)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "api", "418")); got != 1 {
		t.Fatalf("got=%v", got)
	}
	if got := testutil.ToFloat64(m.httpInFlight); got != 0 {
		t.Fatalf("in flight=%v", got)
	}

	m.ObserveTenantResolution("demo")
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"http_requests_total", "tenant_resolutions_total", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %s in metrics output", want)
		}
	}
}
