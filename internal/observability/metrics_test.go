package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that every metric accepts the label values used by the
// http, service, dataset and cache packages without panicking.
func TestMetrics_Usable(t *testing.T) {
	// Route uses the path template to bound cardinality (/api/charts/{name}, not /api/charts/wind).
	HTTPRequestsTotal.WithLabelValues("GET", "/api/charts/{name}", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/api/charts/{name}").Observe(0.01)
	DashboardBuildsTotal.WithLabelValues("built").Inc()
	DashboardBuildsTotal.WithLabelValues("cached").Inc()
	DashboardBuildDuration.Observe(0.02)
	EmptySelectionTotal.Inc()
	DatasetRows.Set(1461)
	DatasetLoadDuration.Observe(0.3)
	DatasetFetchRetriesTotal.Inc()
	DatasetFetchTotal.WithLabelValues("2xx").Inc()
	CacheHitsTotal.WithLabelValues("dashboard").Inc()
	CacheMissesTotal.WithLabelValues("dashboard").Inc()
	CacheErrorsTotal.WithLabelValues("memcached", "get").Inc()
	RateLimitDeniedTotal.Inc()
	ShutdownInFlight.Set(0)
}

// TestDatasetRows_Exposed verifies the gauge is served with the last value set.
func TestDatasetRows_Exposed(t *testing.T) {
	DatasetRows.Set(42)
	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "datasetRows 42") {
		t.Error("datasetRows 42 not found in exposition")
	}
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/", "2xx").Inc()
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"httpRequestsTotal", "datasetRows", "dashboardBuildDurationSeconds"} {
		if !strings.Contains(body, name) {
			t.Errorf("MetricsHandler response missing %s", name)
		}
	}
}
