package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/chart"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/service"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/validation"
)

// HealthConfig holds optional dependency checks for the health handler.
type HealthConfig struct {
	StartTime time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboardService *service.DashboardService
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(dashboardService *service.DashboardService, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dashboardService: dashboardService,
		healthConfig:     healthConfig,
		logger:           logger,
	}
}

// requestLogger returns the correlation-scoped logger stored by CorrelationIDMiddleware.
func (h *Handler) requestLogger(r *http.Request) *zap.Logger {
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return h.logger
}

// selection parses the year filter, writing a 400 and returning false when it is invalid.
func (h *Handler) selection(w http.ResponseWriter, r *http.Request) ([]int, bool) {
	sel, err := validation.ParseSelection(r.URL.Query(), h.dashboardService.Years())
	switch {
	case err == nil:
		return sel.Years, true
	case errors.Is(err, validation.ErrInvalidYear):
		writeError(w, r, http.StatusBadRequest, "INVALID_YEAR", err.Error())
	case errors.Is(err, validation.ErrUnknownYear):
		writeError(w, r, http.StatusBadRequest, "UNKNOWN_YEAR", err.Error())
	default:
		writeError(w, r, http.StatusBadRequest, "INVALID_YEAR", err.Error())
	}
	return nil, false
}

// GetIndex handles GET /, the HTML dashboard.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	years, ok := h.selection(w, r)
	if !ok {
		return
	}
	page, cached, err := h.dashboardService.Dashboard(r.Context(), years)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, page); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", cacheHeader(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetDashboard handles GET /api/dashboard, the page model as JSON or MessagePack.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	years, ok := h.selection(w, r)
	if !ok {
		return
	}
	page, cached, err := h.dashboardService.Dashboard(r.Context(), years)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(cached))
	writeResponse(w, r, http.StatusOK, page)
}

// GetSummary handles GET /api/summary. Optional current and previous override the configured years.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, err := validation.ParseYear(q.Get("current"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_YEAR", err.Error())
		return
	}
	previous, err := validation.ParseYear(q.Get("previous"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_YEAR", err.Error())
		return
	}
	cmp, err := h.dashboardService.Summary(r.Context(), current, previous)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, cmp)
}

// GetChart handles GET /api/charts/{name}, one self-contained Vega-Lite spec.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	years, ok := h.selection(w, r)
	if !ok {
		return
	}
	spec, err := h.dashboardService.Chart(r.Context(), name, years)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, spec)
}

// GetSeries handles GET /api/series/{name}, the server-computed values behind a chart.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	years, ok := h.selection(w, r)
	if !ok {
		return
	}
	series, err := h.dashboardService.Series(r.Context(), name, years)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, map[string]interface{}{
		"name":   name,
		"years":  years,
		"points": series,
	})
}

// GetData handles GET /api/data, the filtered rows.
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	years, ok := h.selection(w, r)
	if !ok {
		return
	}
	rows, err := h.dashboardService.Data(r.Context(), years)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeResponse(w, r, http.StatusOK, rows)
}

func cacheHeader(cached bool) string {
	if cached {
		return "HIT"
	}
	return "MISS"
}

// writeServiceError maps pipeline errors to responses and logs the cause.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.requestLogger(r)
	switch {
	case errors.Is(err, chart.ErrUnknownChart):
		writeError(w, r, http.StatusNotFound, "UNKNOWN_CHART", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", zap.Error(err))
		writeError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "request timed out")
	case errors.Is(err, context.Canceled):
		logger.Debug("request canceled", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "CANCELED", "request canceled")
	default:
		logger.Error("dashboard request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "unable to build dashboard")
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"dataset": "healthy"}
	rows := 0
	if h.dashboardService == nil || h.dashboardService.Rows() == 0 {
		checks["dataset"] = "unhealthy"
	} else {
		rows = h.dashboardService.Rows()
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "seattle-weather-dashboard",
		"version":   "dev",
		"checks":    checks,
		"rows":      rows,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptimeSeconds"] = int64(time.Since(h.healthConfig.StartTime).Seconds())
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in priority order: shutting-down > starting > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !lifecycle.IsReady() || h.dashboardService == nil {
		return healthResult{"starting", http.StatusServiceUnavailable, "dataset_not_loaded"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}
