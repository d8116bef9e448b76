package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
)

// Source names accepted by Options.Source.
const (
	SourceURL    = "url"
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// DefaultURL is the public vega-datasets copy of the Seattle weather table.
const DefaultURL = "https://vega.github.io/vega-datasets/data/seattle-weather.csv"

// ErrInvalidRecord is returned when a loaded row violates the table invariants.
var ErrInvalidRecord = errors.New("invalid weather record")

// ErrEmptyDataset is returned by Load when the source holds no rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Options selects and configures the dataset source.
type Options struct {
	Source     string
	URL        string
	Path       string
	SQLitePath string

	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// HTTPClient overrides the client used by the url source. Nil uses a client with Timeout.
	HTTPClient *http.Client
}

// Load reads the complete weather table from the configured source, sorts it by date
// and validates it. Callers treat any error as fatal.
func Load(ctx context.Context, opts Options, logger *zap.Logger) (models.Table, error) {
	start := time.Now()
	table, err := loadSource(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s dataset: %w", opts.Source, err)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("load %s dataset: %w", opts.Source, ErrEmptyDataset)
	}
	sort.SliceStable(table, func(i, j int) bool { return table[i].Date.Before(table[j].Date) })
	if err := Validate(table); err != nil {
		return nil, err
	}

	observability.DatasetRows.Set(float64(table.Len()))
	observability.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	if logger != nil {
		logger.Info("dataset loaded",
			zap.String("source", opts.Source),
			zap.Int("rows", table.Len()),
			zap.Ints("years", table.Years()),
			zap.Duration("duration", time.Since(start)))
	}
	return table, nil
}

func loadSource(ctx context.Context, opts Options) (models.Table, error) {
	switch opts.Source {
	case SourceURL, "":
		url := opts.URL
		if url == "" {
			url = DefaultURL
		}
		return NewFetcher(opts).Fetch(ctx, url)
	case SourceCSV:
		f, err := os.Open(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	case SourceSQLite:
		db, err := openSQLiteReadOnly(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return ReadSQLite(ctx, db)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", opts.Source)
	}
}

// Validate checks the table invariants on a date-ordered table: unique ascending dates,
// finite measurements, temp_min <= temp_max and a non-empty weather label.
func Validate(table models.Table) error {
	for i, r := range table {
		for _, v := range []float64{r.Precipitation, r.TempMax, r.TempMin, r.Wind} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s: non-finite measurement", ErrInvalidRecord, r.Date.Format(models.DateLayout))
			}
		}
		if r.Weather == "" {
			return fmt.Errorf("%w: %s: empty weather label", ErrInvalidRecord, r.Date.Format(models.DateLayout))
		}
		if r.TempMin > r.TempMax {
			return fmt.Errorf("%w: %s: temp_min %.1f above temp_max %.1f", ErrInvalidRecord, r.Date.Format(models.DateLayout), r.TempMin, r.TempMax)
		}
		if i > 0 && !table[i-1].Date.Before(r.Date) {
			return fmt.Errorf("%w: %s: duplicate or out-of-order date", ErrInvalidRecord, r.Date.Format(models.DateLayout))
		}
	}
	return nil
}
