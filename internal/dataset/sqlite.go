package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

const createWeatherTable = `CREATE TABLE IF NOT EXISTS weather (
	date          TEXT PRIMARY KEY,
	precipitation REAL NOT NULL,
	temp_max      REAL NOT NULL,
	temp_min      REAL NOT NULL,
	wind          REAL NOT NULL,
	weather       TEXT NOT NULL
)`

// OpenSQLite opens the SQLite database at path, creating its directory when needed.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// openSQLiteReadOnly opens an existing database for reading. Unlike OpenSQLite it never
// creates the file or its directory.
func openSQLiteReadOnly(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("sqlite database: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_query_only=true&_busy_timeout=5000", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func buildDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite path is required")
	}
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path), nil
}

// ReadSQLite reads the weather table ordered by date.
func ReadSQLite(ctx context.Context, db *sql.DB) (models.Table, error) {
	rows, err := db.QueryContext(ctx, `SELECT date, precipitation, temp_max, temp_min, wind, weather FROM weather ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("query weather: %w", err)
	}
	defer rows.Close()

	var table models.Table
	for rows.Next() {
		var (
			date string
			rec  models.WeatherRecord
		)
		if err := rows.Scan(&date, &rec.Precipitation, &rec.TempMax, &rec.TempMin, &rec.Wind, &rec.Weather); err != nil {
			return nil, fmt.Errorf("scan weather: %w", err)
		}
		d, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q", ErrInvalidRecord, date)
		}
		rec.Date = d.UTC()
		table = append(table, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather: %w", err)
	}
	return table, nil
}

// WriteSQLite replaces the contents of the weather table with table in a single transaction.
func WriteSQLite(ctx context.Context, db *sql.DB, table models.Table) error {
	if _, err := db.ExecContext(ctx, createWeatherTable); err != nil {
		return fmt.Errorf("create weather table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weather`); err != nil {
		return fmt.Errorf("clear weather: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO weather (date, precipitation, temp_max, temp_min, wind, weather) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range table {
		if _, err := stmt.ExecContext(ctx, r.Date.Format(models.DateLayout), r.Precipitation, r.TempMax, r.TempMin, r.Wind, r.Weather); err != nil {
			return fmt.Errorf("insert %s: %w", r.Date.Format(models.DateLayout), err)
		}
	}
	return tx.Commit()
}
