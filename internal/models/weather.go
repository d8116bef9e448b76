package models

import (
	"sort"
	"time"
)

// DateLayout is the calendar date format used by the dataset and by chart rows.
const DateLayout = "2006-01-02"

// WeatherRecord is one day of the Seattle weather table.
type WeatherRecord struct {
	Date          time.Time
	Precipitation float64 // mm
	TempMax       float64 // °C
	TempMin       float64 // °C
	Wind          float64 // kt
	Weather       string
}

// Year returns the calendar year of the record date.
func (r WeatherRecord) Year() int {
	return r.Date.Year()
}

// Row returns the JSON view of the record.
func (r WeatherRecord) Row() Row {
	return Row{
		Date:          r.Date.Format(DateLayout),
		Precipitation: r.Precipitation,
		TempMax:       r.TempMax,
		TempMin:       r.TempMin,
		Wind:          r.Wind,
		Weather:       r.Weather,
	}
}

// Row is the serialized form of a WeatherRecord. Field names match the dataset
// CSV header and are the field names chart encodings bind to.
type Row struct {
	Date          string  `json:"date"`
	Precipitation float64 `json:"precipitation"`
	TempMax       float64 `json:"temp_max"`
	TempMin       float64 `json:"temp_min"`
	Wind          float64 `json:"wind"`
	Weather       string  `json:"weather"`
}

// Table is an ordered, read-only set of weather records.
// Derived tables are always fresh slices; a Table is never modified after load.
type Table []WeatherRecord

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t)
}

// Years returns the distinct years present in the table, ascending.
func (t Table) Years() []int {
	seen := make(map[int]struct{})
	var years []int
	for _, r := range t {
		y := r.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Labels returns the distinct weather labels in order of first appearance.
func (t Table) Labels() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, r := range t {
		if _, ok := seen[r.Weather]; ok {
			continue
		}
		seen[r.Weather] = struct{}{}
		labels = append(labels, r.Weather)
	}
	return labels
}

// Rows returns the JSON views of all records. An empty table yields an empty, non-nil slice
// so it encodes as [] rather than null.
func (t Table) Rows() []Row {
	rows := make([]Row, 0, len(t))
	for _, r := range t {
		rows = append(rows, r.Row())
	}
	return rows
}

// YearlyAggregate holds scalar summaries of a single year.
// When Present is false no rows matched and the numeric fields carry no meaning.
type YearlyAggregate struct {
	Year             int     `json:"year"`
	Days             int     `json:"days"`
	Present          bool    `json:"present"`
	TempMax          float64 `json:"tempMax"`
	TempMin          float64 `json:"tempMin"`
	WindMax          float64 `json:"windMax"`
	WindMin          float64 `json:"windMin"`
	PrecipitationMax float64 `json:"precipitationMax"`
	PrecipitationMin float64 `json:"precipitationMin"`
	MostCommon       string  `json:"mostCommon,omitempty"`
	LeastCommon      string  `json:"leastCommon,omitempty"`
}
