package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DashboardBuilder is implemented by the service layer to build, and thereby cache, the page
// for a year selection. Used by CacheWarmer to avoid a dependency on the service package.
type DashboardBuilder interface {
	WarmDashboard(ctx context.Context, years []int) error
}

// CacheWarmer pre-builds dashboards for common selections so first visitors hit the cache.
type CacheWarmer struct {
	builder DashboardBuilder
	logger  *zap.Logger
	clock   clockwork.Clock
}

// NewCacheWarmer creates a CacheWarmer that uses the given builder and logger.
func NewCacheWarmer(builder DashboardBuilder, logger *zap.Logger) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWarmer{builder: builder, logger: logger, clock: clockwork.NewRealClock()}
}

// Warm builds every selection concurrently. Returns the joined errors of failed selections.
func (w *CacheWarmer) Warm(ctx context.Context, selections [][]int) error {
	start := w.clock.Now()
	w.logger.Info("warming cache", zap.Int("selections", len(selections)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(selections))
	for _, years := range selections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.builder.WarmDashboard(ctx, years); err != nil {
				errCh <- fmt.Errorf("warm %v: %w", years, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	w.logger.Info("cache warming complete",
		zap.Int("selections", len(selections)),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", w.clock.Since(start)))
	if len(errs) > 0 {
		return fmt.Errorf("cache warming: %w", errors.Join(errs...))
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
// Use an interval shorter than the cache TTL so warmed entries never lapse.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, selections [][]int, interval time.Duration) error {
	if err := w.Warm(ctx, selections); err != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := w.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := w.Warm(ctx, selections); err != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}

// DefaultSelections returns the selections worth warming: all years (the landing page)
// and each single year.
func DefaultSelections(years []int) [][]int {
	if len(years) == 0 {
		return nil
	}
	out := [][]int{append([]int(nil), years...)}
	for _, y := range years {
		out = append(out, []int{y})
	}
	return out
}
