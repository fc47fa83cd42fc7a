package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveRequestIncrementsCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("openai", "200", 50*time.Millisecond)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/internal/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	if !containsAll(rec.Body.String(), "llm_gw_requests_total", `protocol="openai"`, `status="200"`) {
		t.Fatalf("expected request counter in exposition output, got: %s", rec.Body.String())
	}
}

func TestObserveRotationIncrementsCounter(t *testing.T) {
	m := New()
	m.ObserveRotation("429")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/internal/metrics", nil))
	if !containsAll(rec.Body.String(), "llm_gw_pool_rotations_total", `reason="429"`) {
		t.Fatalf("expected rotation counter in exposition output, got: %s", rec.Body.String())
	}
}

func TestSetPoolSizeUpdatesGauges(t *testing.T) {
	m := New()
	m.SetPoolSize(3, 5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/internal/metrics", nil))
	body := rec.Body.String()
	if !containsAll(body, "llm_gw_pool_healthy_accounts 3", "llm_gw_pool_accounts_total 5") {
		t.Fatalf("expected pool gauges in exposition output, got: %s", body)
	}
}

func containsAll(haystack string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}
