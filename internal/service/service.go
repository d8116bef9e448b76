// Package service runs the dashboard pipeline (filter, summary, charts, assembly) over the
// loaded table, caching assembled pages per year selection.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/cache"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/chart"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/filter"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/summary"
)

const cacheType = "dashboard"

// Options configures a DashboardService.
type Options struct {
	// Comparison years; zero values resolve against the table (see summary.ResolveYears).
	CurrentYear  int
	PreviousYear int
	Charts       chart.Options
	Icons        dashboard.Icons
	CacheTTL     time.Duration
	// BuildTimeout bounds a coalesced page build. Defaults to 10s.
	BuildTimeout time.Duration
}

// DashboardService serves the dashboard and its parts for a year selection.
// The table is read-only; the service is safe for concurrent use.
type DashboardService struct {
	table     models.Table
	years     []int
	current   int
	previous  int
	charts    chart.Options
	icons     dashboard.Icons
	cache     cache.Cache // nil disables caching
	ttl       time.Duration
	coalescer *buildCoalescer
	clock     clockwork.Clock
}

// NewDashboardService creates a service over table. c may be nil.
func NewDashboardService(table models.Table, c cache.Cache, opts Options) *DashboardService {
	current, previous := summary.ResolveYears(table, opts.CurrentYear, opts.PreviousYear)
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = 10 * time.Second
	}
	return &DashboardService{
		table:     table,
		years:     table.Years(),
		current:   current,
		previous:  previous,
		charts:    opts.Charts,
		icons:     opts.Icons,
		cache:     c,
		ttl:       opts.CacheTTL,
		coalescer: newBuildCoalescer(opts.BuildTimeout),
		clock:     clockwork.NewRealClock(),
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.NewNop()
}

// Years returns every year in the table, ascending.
func (s *DashboardService) Years() []int {
	return s.years
}

// Rows returns the number of rows in the table.
func (s *DashboardService) Rows() int {
	return s.table.Len()
}

// ComparisonYears returns the resolved current and previous years.
func (s *DashboardService) ComparisonYears() (int, int) {
	return s.current, s.previous
}

// Dashboard returns the page for the selected years using the cache-aside pattern.
// cached reports whether the page came from the cache. Cache failures are logged and
// counted but never fail the request.
func (s *DashboardService) Dashboard(ctx context.Context, years []int) (page dashboard.Page, cached bool, err error) {
	if err := ctx.Err(); err != nil {
		observability.DashboardBuildsTotal.WithLabelValues("canceled").Inc()
		return dashboard.Page{}, false, err
	}
	logger := loggerFromContext(ctx)
	key := cacheKey(years)
	if len(years) == 0 {
		observability.EmptySelectionTotal.Inc()
	}

	if raw, ok := s.cacheGet(ctx, key, logger); ok {
		if err := json.Unmarshal(raw, &page); err == nil {
			observability.DashboardBuildsTotal.WithLabelValues("cached").Inc()
			logger.Debug("dashboard served", zap.String("key", key), zap.Bool("cached", true))
			return page, true, nil
		}
		logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	raw, shared, err := s.coalescer.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		p, err := s.build(ctx, years)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode dashboard: %w", err)
		}
		s.cacheSet(ctx, key, raw, logger)
		return raw, nil
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = "canceled"
		}
		observability.DashboardBuildsTotal.WithLabelValues(outcome).Inc()
		return dashboard.Page{}, false, err
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return dashboard.Page{}, false, fmt.Errorf("decode dashboard: %w", err)
	}
	observability.DashboardBuildsTotal.WithLabelValues("built").Inc()
	logger.Debug("dashboard served", zap.String("key", key), zap.Bool("cached", false), zap.Bool("coalesced", shared))
	return page, false, nil
}

// WarmDashboard builds and caches the page for years. Implements cache.DashboardBuilder.
func (s *DashboardService) WarmDashboard(ctx context.Context, years []int) error {
	_, _, err := s.Dashboard(ctx, years)
	return err
}

// build runs the pipeline stages, checking ctx between them.
func (s *DashboardService) build(ctx context.Context, years []int) (dashboard.Page, error) {
	start := s.clock.Now()
	defer func() { observability.DashboardBuildDuration.Observe(s.clock.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return dashboard.Page{}, err
	}
	comparison := summary.Compare(s.table, s.current, s.previous)

	if err := ctx.Err(); err != nil {
		return dashboard.Page{}, err
	}
	rows := filter.ByYears(s.table, years)

	if err := ctx.Err(); err != nil {
		return dashboard.Page{}, err
	}
	charts := chart.BuildAll(rows, s.charts)

	if err := ctx.Err(); err != nil {
		return dashboard.Page{}, err
	}
	page, err := dashboard.Assemble(dashboard.Input{
		Years:      s.years,
		Selected:   years,
		Comparison: comparison,
		Charts:     charts,
		Rows:       rows,
		Icons:      s.icons,
	})
	if err != nil {
		return dashboard.Page{}, fmt.Errorf("assemble dashboard: %w", err)
	}
	return page, nil
}

// Summary compares two years. Zero arguments fall back to the configured years.
func (s *DashboardService) Summary(ctx context.Context, current, previous int) (summary.Comparison, error) {
	if err := ctx.Err(); err != nil {
		return summary.Comparison{}, err
	}
	if current == 0 {
		current = s.current
	}
	if previous == 0 {
		previous = s.previous
	}
	return summary.Compare(s.table, current, previous), nil
}

// Chart returns one self-contained chart spec for the selection.
func (s *DashboardService) Chart(ctx context.Context, name string, years []int) (chart.Spec, error) {
	if err := ctx.Err(); err != nil {
		return chart.Spec{}, err
	}
	return chart.Build(name, filter.ByYears(s.table, years), s.charts)
}

// Series returns the server-side reference series behind a chart.
func (s *DashboardService) Series(ctx context.Context, name string, years []int) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chart.Series(name, filter.ByYears(s.table, years), s.charts)
}

// Data returns the filtered rows.
func (s *DashboardService) Data(ctx context.Context, years []int) ([]models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return filter.ByYears(s.table, years).Rows(), nil
}

func (s *DashboardService) cacheGet(ctx context.Context, key string, logger *zap.Logger) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues(cacheType, "get").Inc()
		logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		observability.CacheMissesTotal.WithLabelValues(cacheType).Inc()
		return nil, false
	}
	observability.CacheHitsTotal.WithLabelValues(cacheType).Inc()
	return raw, true
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, raw []byte, logger *zap.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		observability.CacheErrorsTotal.WithLabelValues(cacheType, "set").Inc()
		logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// cacheKey identifies a selection. Years are expected sorted and distinct.
func cacheKey(years []int) string {
	if len(years) == 0 {
		return "page:none"
	}
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return "page:" + strings.Join(parts, ",")
}
