package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/authn"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"STORE_BACKEND":           BackendMemory,
		"AUTH_JWT_SECRET":         testSecret,
		"DEMO_MODE_ENABLED":       "true",
		"TENANT_OVERRIDE_ENABLED": "",
		"REDIS_ADDR":              "",
		"AUTHZ_MODE":              "",
		"AUTHZ_MODEL_PATH":        "",
		"AUTHZ_POLICY_PATH":       "",
		"KPI_PATH":                "",
		"ALLOWLIST_PATH":          "",
		"TENANTS_PATH":            "",
		"DEMO_TENANT_ID":          "",
		"AI_API_URL":              "",
		"GOV_QIWA_URL":            "",
		"GOV_RATE_PER_SECOND":     "",
	} {
		t.Setenv(k, v)
	}
}

func TestNewAppFromEnv_MemoryBackend(t *testing.T) {
	memoryEnv(t)

	app, err := NewAppFromEnv(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	v, err := authn.NewVerifier([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	issue := func(s authn.Session) string {
		tok, err := v.Issue(s, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	call := func(method, target, tok, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		app.Handler.ServeHTTP(rec, req)
		var out map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: %v body=%s", method, target, err, rec.Body.String())
		}
		return rec.Code, out
	}

	hr := issue(authn.Session{UserID: "hr.lead@riyadh-logistics.sa", Role: "hr_manager"})
	code, out := call(http.MethodPost, "/api/v1/employees", hr, `{"employee_number":"E-1","full_name":"Noura","email":"noura@example.sa","is_saudi":true,"status":"active","national_id":"1010101010","salary":12000}`)
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("create code=%d out=%v", code, out)
	}
	noura := out["data"].(map[string]any)["id"].(string)
	if code, out = call(http.MethodPost, "/api/v1/employees", hr, `{"employee_number":"E-2","full_name":"Omar","status":"active","national_id":"2020202020","salary":9000}`); code != http.StatusOK {
		t.Fatalf("create code=%d out=%v", code, out)
	}

	self := issue(authn.Session{UserID: "hr.lead@riyadh-logistics.sa", Role: "employee", EmployeeID: noura})
	code, out = call(http.MethodGet, "/api/v1/employees", self, "")
	if code != http.StatusOK {
		t.Fatalf("list code=%d out=%v", code, out)
	}
	list := out["data"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["national_id"] != "1010101010" {
		t.Fatalf("self list=%v", list)
	}

	code, out = call(http.MethodGet, "/api/v1/analytics/dashboard", hr, "")
	if code != http.StatusOK {
		t.Fatalf("dashboard code=%d out=%v", code, out)
	}
	report := out["data"].(map[string]any)
	if report["metrics"].(map[string]any)["headcount"] != 2.0 {
		t.Fatalf("report=%v", report)
	}
	if _, ok := report["kpis"].(map[string]any)["saudization_rate"]; !ok {
		t.Fatalf("kpis=%v", report["kpis"])
	}

	code, out = call(http.MethodPost, "/api/v1/government/sync", hr, "")
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("sync code=%d out=%v", code, out)
	}
	if failed := out["data"].(map[string]any)["failed"]; failed != 7.0 {
		t.Fatalf("failed=%v", failed)
	}

	if code, _ = call(http.MethodGet, "/api/v1/system/tenants", hr, ""); code != http.StatusForbidden {
		t.Fatalf("system as hr code=%d", code)
	}
	root := issue(authn.Session{UserID: "ops@aqlhr.sa", Role: "super_admin"})
	code, out = call(http.MethodGet, "/api/v1/system/tenants", root, "")
	if code != http.StatusOK || len(out["data"].([]any)) != 2 {
		t.Fatalf("tenants code=%d out=%v", code, out)
	}

	code, out = call(http.MethodGet, "/api/v1/employees", "", "")
	if code != http.StatusOK || len(out["data"].([]any)) != 0 {
		t.Fatalf("anonymous demo code=%d out=%v", code, out)
	}

	outsider := issue(authn.Session{UserID: "someone@elsewhere.sa", Role: "admin"})
	if code, out = call(http.MethodDelete, "/api/v1/employees/"+noura, outsider, ""); code != http.StatusForbidden || out["success"] != false {
		t.Fatalf("non-member admin delete code=%d out=%v", code, out)
	}
}

func TestNewAppFromEnv_Errors(t *testing.T) {
	memoryEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := NewAppFromEnv(context.Background()); err == nil {
		t.Fatal("expected missing secret error")
	}

	memoryEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")
	if _, err := NewAppFromEnv(context.Background()); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestNewSyncServiceFromEnv(t *testing.T) {
	memoryEnv(t)

	svc, closeFn, err := NewSyncServiceFromEnv(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	res := svc.BulkSync(context.Background(), "11111111-1111-1111-1111-111111111111", []string{"qiwa"})
	if len(res) != 1 || res[0].Success {
		t.Fatalf("res=%+v", res)
	}
}
