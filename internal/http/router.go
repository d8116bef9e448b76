package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger         *zap.Logger
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting
}

// NewRouter wires the dashboard routes. /health and /metrics bypass the rate limiter and
// request timeout; the page and /api routes get both.
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := RateLimitMiddleware(opts.Limiter)
	timeout := TimeoutMiddleware(opts.RequestTimeout)

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	router.Handle("/", limit(timeout(http.HandlerFunc(h.GetIndex)))).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limit)
	api.Use(timeout)
	api.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)
	api.HandleFunc("/summary", h.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/charts/{name}", h.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/series/{name}", h.GetSeries).Methods(http.MethodGet)
	api.HandleFunc("/data", h.GetData).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	return router
}
