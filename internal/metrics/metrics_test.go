package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("writing counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	// None of these may panic.
	m.CacheHit("concert")
	m.CacheMiss("concert")
	m.SetCacheEntries(3)
	m.ObserveUpstream("listing", "2xx", time.Second)
	m.ObserveExtraction("", 0)
	m.ObserveHTTP("GET", "/concerts", 200, time.Millisecond)

	if h := m.Handler(); h == nil {
		t.Error("nil Metrics should still return a handler")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CacheHit("concert")
	m.CacheHit("concert")
	m.CacheMiss("musical")
	m.ObserveExtraction("", 0)
	m.ObserveExtraction("table", 3)

	if got := counterValue(t, m.cacheLookups.WithLabelValues("concert", "hit")); got != 2 {
		t.Errorf("concert hits = %v, want 2", got)
	}
	if got := counterValue(t, m.cacheLookups.WithLabelValues("musical", "miss")); got != 1 {
		t.Errorf("musical misses = %v, want 1", got)
	}
	if got := counterValue(t, m.extractions.WithLabelValues("none")); got != 1 {
		t.Errorf("empty extractions = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "concert_server_http_requests_total") {
		t.Error("exposition missing http_requests_total")
	}
}
