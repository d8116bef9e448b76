package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/cache"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/chart"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/config"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/dataset"
	httphandler "github.com/kjstillabower/seattle-weather-dashboard/internal/http"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	table, err := dataset.Load(loadCtx, dataset.Options{
		Source:         cfg.DatasetSource,
		URL:            cfg.DatasetURL,
		Path:           cfg.DatasetPath,
		SQLitePath:     cfg.DatasetSQLitePath,
		Timeout:        cfg.DatasetTimeout,
		RetryAttempts:  cfg.DatasetRetryAttempts,
		RetryBaseDelay: cfg.DatasetRetryBaseDelay,
		RetryMaxDelay:  cfg.DatasetRetryMaxDelay,
	}, logger)
	loadCancel()
	if err != nil {
		logger.Fatal("dataset", zap.Error(err))
	}

	icons := dashboard.Icons{Policy: cfg.IconPolicy, Fallback: cfg.IconFallback}
	if err := dashboard.CheckIcons(table, icons); err != nil {
		logger.Fatal("weather icons", zap.Error(err), zap.Strings("labels", table.Labels()))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "none":
		logger.Info("cache backend: none")
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	dashboardService := service.NewDashboardService(table, cacheSvc, service.Options{
		CurrentYear:  cfg.CurrentYear,
		PreviousYear: cfg.PreviousYear,
		Charts:       chart.Options{LegendOrient: cfg.LegendOrient, WindWindowDays: cfg.WindWindowDays},
		Icons:        icons,
		CacheTTL:     cfg.CacheTTL,
		BuildTimeout: cfg.RequestTimeout,
	})
	current, previous := dashboardService.ComparisonYears()
	logger.Info("comparison years", zap.Int("current", current), zap.Int("previous", previous))

	warmCtx, stopWarming := context.WithCancel(context.Background())
	defer stopWarming()
	if cfg.CacheWarm && cacheSvc != nil {
		warmer := cache.NewCacheWarmer(dashboardService, logger)
		selections := cache.DefaultSelections(dashboardService.Years())
		initCtx, initCancel := context.WithTimeout(warmCtx, 30*time.Second)
		if err := warmer.Warm(initCtx, selections); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		initCancel()
		// Refresh before entries expire.
		interval := cfg.CacheTTL * 9 / 10
		if interval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(warmCtx, selections, interval); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	healthConfig := &httphandler.HealthConfig{StartTime: time.Now()}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(dashboardService, healthConfig, logger)
	router := httphandler.NewRouter(handler, httphandler.RouterOptions{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	lifecycle.SetReady(true)
	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	stopWarming()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	observability.ShutdownInFlight.Set(float64(inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	logger.Info("shutdown complete")
	var closers []io.Closer
	if memcacheCloser != nil {
		closers = append(closers, memcacheCloser)
	}
	if err := observability.FlushTelemetry(context.Background(), logger, closers...); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry flush: %v\n", err)
	}
}
