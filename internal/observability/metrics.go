package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate by route template. Watch for: 5xx ratio, sudden drops.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP latency per route. Watch for: p95 of / and /api/dashboard as the dataset grows.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Dashboard pipeline runs by outcome (built, cached, error, canceled).
	DashboardBuildsTotal *prometheus.CounterVec

	// Time to run filter, summary, charts and assembly for one selection.
	DashboardBuildDuration prometheus.Histogram

	// Requests that selected no years and got the warning page.
	EmptySelectionTotal prometheus.Counter

	// Rows in the loaded table. Zero after startup means the load failed silently.
	DatasetRows prometheus.Gauge

	// Time to fetch/read, parse and validate the dataset.
	DatasetLoadDuration prometheus.Histogram

	// Retries while fetching the dataset over HTTP. Watch for: unstable upstream at deploy time.
	DatasetFetchRetriesTotal prometheus.Counter

	// Dataset fetch attempts by status class ("2xx", "5xx", "error").
	DatasetFetchTotal *prometheus.CounterVec

	// Cache lookups. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Cache backend failures by operation. These never fail a request.
	CacheErrorsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Requests still running when shutdown began.
	ShutdownInFlight prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	DashboardBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboardBuildsTotal",
			Help: "Dashboard pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	DashboardBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboardBuildDurationSeconds",
			Help:    "Time to build one dashboard page from the table",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
	EmptySelectionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emptySelectionTotal",
			Help: "Dashboard requests with no years selected",
		},
	)
	DatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datasetRows",
			Help: "Number of rows in the loaded weather table",
		},
	)
	DatasetLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datasetLoadDurationSeconds",
			Help:    "Time to load and validate the weather table",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
	)
	DatasetFetchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datasetFetchRetriesTotal",
			Help: "Total number of retry attempts while fetching the dataset",
		},
	)
	DatasetFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetFetchTotal",
			Help: "Dataset fetch attempts by HTTP status class",
		},
		[]string{"status"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits",
		},
		[]string{"cacheType"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of cache misses",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation",
		},
		[]string{"cacheType", "op"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	ShutdownInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlight",
			Help: "Requests in flight when shutdown started",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		DashboardBuildsTotal, DashboardBuildDuration, EmptySelectionTotal,
		DatasetRows, DatasetLoadDuration, DatasetFetchRetriesTotal, DatasetFetchTotal,
		CacheHitsTotal, CacheMissesTotal, CacheErrorsTotal,
		RateLimitDeniedTotal, ShutdownInFlight,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
