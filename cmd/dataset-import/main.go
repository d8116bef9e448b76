// Command dataset-import loads the weather table from a URL or CSV file and stores it in the
// SQLite database the dashboard reads when dataset.source is sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/config"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/dataset"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/observability"
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

	source := flag.String("source", dataset.SourceURL, "where to read the table from: url or csv")
	url := flag.String("url", cfg.DatasetURL, "dataset URL for -source=url")
	path := flag.String("path", cfg.DatasetPath, "CSV file for -source=csv")
	db := flag.String("db", cfg.DatasetSQLitePath, "SQLite database to write")
	csvOut := flag.String("csv-out", "", "also write the loaded table as CSV to this file")
	flag.Parse()

	if *source == dataset.SourceSQLite {
		logger.Fatal("source must be url or csv", zap.String("source", *source))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := dataset.Load(ctx, dataset.Options{
		Source:         *source,
		URL:            *url,
		Path:           *path,
		Timeout:        cfg.DatasetTimeout,
		RetryAttempts:  cfg.DatasetRetryAttempts,
		RetryBaseDelay: cfg.DatasetRetryBaseDelay,
		RetryMaxDelay:  cfg.DatasetRetryMaxDelay,
	}, logger)
	if err != nil {
		logger.Fatal("load dataset", zap.Error(err))
	}

	conn, err := dataset.OpenSQLite(*db)
	if err != nil {
		logger.Fatal("open sqlite", zap.Error(err), zap.String("db", *db))
	}
	defer conn.Close()
	if err := dataset.WriteSQLite(ctx, conn, table); err != nil {
		logger.Fatal("write sqlite", zap.Error(err))
	}
	logger.Info("dataset imported", zap.String("db", *db), zap.Int("rows", table.Len()))

	if *csvOut != "" {
		f, err := os.Create(*csvOut)
		if err != nil {
			logger.Fatal("create csv", zap.Error(err))
		}
		if err := dataset.WriteCSV(f, table); err != nil {
			_ = f.Close()
			logger.Fatal("write csv", zap.Error(err))
		}
		if err := f.Close(); err != nil {
			logger.Fatal("close csv", zap.Error(err))
		}
		logger.Info("dataset exported", zap.String("csv", *csvOut))
	}
}
