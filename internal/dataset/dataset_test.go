package dataset

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

const sampleCSV = "date,precipitation,temp_max,temp_min,wind,weather\n" +
	"2015-01-02,1.5,5.6,0.0,2.3,fog\n" +
	"2015-01-01,0.0,5.6,-3.2,1.2,sun\n"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoad_CSVSortsByDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	table, err := Load(context.Background(), Options{Source: SourceCSV, Path: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !table[0].Date.Equal(day(2015, 1, 1)) || !table[1].Date.Equal(day(2015, 1, 2)) {
		t.Errorf("Load() dates = %v, %v; want ascending", table[0].Date, table[1].Date)
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	_, err := Load(context.Background(), Options{Source: "ftp"}, nil)
	if err == nil {
		t.Fatal("Load() expected error for unknown source, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), Options{Source: SourceCSV, Path: filepath.Join(t.TempDir(), "nope.csv")}, nil)
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

// TestLoad_HeaderOnlyCSV verifies a source without rows fails the load.
func TestLoad_HeaderOnlyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	if err := os.WriteFile(path, []byte("date,precipitation,temp_max,temp_min,wind,weather\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(context.Background(), Options{Source: SourceCSV, Path: path}, nil)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("Load() error = %v, want ErrEmptyDataset", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   models.Table
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid", models.Table{
			{Date: day(2014, 1, 1), TempMax: 10, TempMin: 0, Weather: "sun"},
			{Date: day(2014, 1, 2), TempMax: 10, TempMin: 10, Weather: "rain"},
		}, false},
		{"min above max", models.Table{
			{Date: day(2014, 1, 1), TempMax: 1, TempMin: 2, Weather: "sun"},
		}, true},
		{"duplicate date", models.Table{
			{Date: day(2014, 1, 1), TempMax: 1, Weather: "sun"},
			{Date: day(2014, 1, 1), TempMax: 1, Weather: "sun"},
		}, true},
		{"NaN temp_max", models.Table{
			{Date: day(2014, 1, 1), TempMax: math.NaN(), TempMin: 0, Weather: "sun"},
		}, true},
		{"infinite wind", models.Table{
			{Date: day(2014, 1, 1), TempMax: 1, Wind: math.Inf(1), Weather: "sun"},
		}, true},
		{"empty label", models.Table{
			{Date: day(2014, 1, 1), TempMax: 1},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

// TestFetcher_RetriesOnServerError verifies that 5xx responses are retried and
// a later success is returned.
func TestFetcher_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	f := NewFetcher(Options{RetryAttempts: 3, RetryBaseDelay: time.Millisecond, RetryMaxDelay: 2 * time.Millisecond})
	table, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Fetch() rows = %d, want 2", table.Len())
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetcher_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(Options{RetryAttempts: 3, RetryBaseDelay: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch() error = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestFetcher_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(Options{RetryAttempts: 2, RetryBaseDelay: time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Fetch() error = %v, want ErrRateLimited", err)
	}
}

func TestFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher(Options{RetryAttempts: 3, RetryBaseDelay: time.Second})
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("Fetch() expected error for canceled context, got nil")
	}
}

func TestLoad_URLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	table, err := Load(context.Background(), Options{Source: SourceURL, URL: srv.URL}, zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Load() rows = %d, want 2", table.Len())
	}
}
