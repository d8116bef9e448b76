package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

var csvColumns = []string{"date", "precipitation", "temp_max", "temp_min", "wind", "weather"}

// ParseCSV parses the Seattle weather CSV. Columns are located by header name, so their
// order does not matter. Any malformed row fails the whole parse.
func ParseCSV(r io.Reader) (models.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var table models.Table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		rec, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		table = append(table, rec)
	}
	return table, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		// The BOM shows up when the file was saved by a spreadsheet tool.
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv header: missing column %q", col)
		}
	}
	return idx, nil
}

func parseRecord(record []string, idx map[string]int) (models.WeatherRecord, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[idx[name]])
	}

	date, err := time.Parse(models.DateLayout, field("date"))
	if err != nil {
		return models.WeatherRecord{}, fmt.Errorf("%w: date %q", ErrInvalidRecord, field("date"))
	}
	rec := models.WeatherRecord{Date: date.UTC(), Weather: field("weather")}

	numeric := []struct {
		name string
		dst  *float64
	}{
		{"precipitation", &rec.Precipitation},
		{"temp_max", &rec.TempMax},
		{"temp_min", &rec.TempMin},
		{"wind", &rec.Wind},
	}
	for _, n := range numeric {
		v, err := strconv.ParseFloat(field(n.name), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.WeatherRecord{}, fmt.Errorf("%w: %s %q", ErrInvalidRecord, n.name, field(n.name))
		}
		*n.dst = v
	}
	return rec, nil
}

// WriteCSV writes the table in the dataset CSV layout.
func WriteCSV(w io.Writer, table models.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvColumns); err != nil {
		return err
	}
	for _, r := range table {
		if err := writer.Write([]string{
			r.Date.Format(models.DateLayout),
			strconv.FormatFloat(r.Precipitation, 'f', -1, 64),
			strconv.FormatFloat(r.TempMax, 'f', -1, 64),
			strconv.FormatFloat(r.TempMin, 'f', -1, 64),
			strconv.FormatFloat(r.Wind, 'f', -1, 64),
			r.Weather,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
