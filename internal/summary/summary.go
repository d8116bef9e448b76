// Package summary derives the yearly scalar aggregates shown in the dashboard metric cards.
package summary

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

// Summarize reduces the rows of the given year to a YearlyAggregate.
// With no matching rows the aggregate has Present=false.
func Summarize(table models.Table, year int) models.YearlyAggregate {
	agg := models.YearlyAggregate{Year: year}

	var tempMax, tempMin, wind, precip []float64
	var rows models.Table
	for _, r := range table {
		if r.Year() != year {
			continue
		}
		rows = append(rows, r)
		tempMax = append(tempMax, r.TempMax)
		tempMin = append(tempMin, r.TempMin)
		wind = append(wind, r.Wind)
		precip = append(precip, r.Precipitation)
	}
	agg.Days = len(rows)
	if agg.Days == 0 {
		return agg
	}

	agg.Present = true
	agg.TempMax = floats.Max(tempMax)
	agg.TempMin = floats.Min(tempMin)
	agg.WindMax = floats.Max(wind)
	agg.WindMin = floats.Min(wind)
	agg.PrecipitationMax = floats.Max(precip)
	agg.PrecipitationMin = floats.Min(precip)

	freq := Frequencies(rows)
	agg.MostCommon = freq.Most()
	agg.LeastCommon = freq.Least()
	return agg
}

// LabelCount is the number of days carrying a weather label.
type LabelCount struct {
	Weather string `json:"weather"`
	Days    int    `json:"days"`
}

// Frequency is a label histogram in order of first appearance.
type Frequency []LabelCount

// Frequencies counts weather labels over the table. Labels keep the order in which
// they first appear, which is chronological for a loaded table.
func Frequencies(table models.Table) Frequency {
	pos := make(map[string]int)
	var freq Frequency
	for _, r := range table {
		i, ok := pos[r.Weather]
		if !ok {
			i = len(freq)
			pos[r.Weather] = i
			freq = append(freq, LabelCount{Weather: r.Weather})
		}
		freq[i].Days++
	}
	return freq
}

// Most returns the label with the highest count. Ties go to the label seen first.
func (f Frequency) Most() string {
	best := -1
	for i, c := range f {
		if best < 0 || c.Days > f[best].Days {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return f[best].Weather
}

// Least returns the label with the lowest count. Ties go to the label seen first.
func (f Frequency) Least() string {
	best := -1
	for i, c := range f {
		if best < 0 || c.Days < f[best].Days {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return f[best].Weather
}

// Deltas are the pairwise differences current minus previous.
type Deltas struct {
	TempMax          float64 `json:"tempMax"`
	TempMin          float64 `json:"tempMin"`
	WindMax          float64 `json:"windMax"`
	WindMin          float64 `json:"windMin"`
	PrecipitationMax float64 `json:"precipitationMax"`
	PrecipitationMin float64 `json:"precipitationMin"`
}

// Comparison pairs the aggregates of two years.
// Deltas is nil unless both years have rows.
type Comparison struct {
	Current  models.YearlyAggregate `json:"current"`
	Previous models.YearlyAggregate `json:"previous"`
	Deltas   *Deltas                `json:"deltas,omitempty"`
}

// Compare summarizes both years and computes their deltas when both are present.
func Compare(table models.Table, current, previous int) Comparison {
	cmp := Comparison{
		Current:  Summarize(table, current),
		Previous: Summarize(table, previous),
	}
	if cmp.Current.Present && cmp.Previous.Present {
		c, p := cmp.Current, cmp.Previous
		cmp.Deltas = &Deltas{
			TempMax:          c.TempMax - p.TempMax,
			TempMin:          c.TempMin - p.TempMin,
			WindMax:          c.WindMax - p.WindMax,
			WindMin:          c.WindMin - p.WindMin,
			PrecipitationMax: c.PrecipitationMax - p.PrecipitationMax,
			PrecipitationMin: c.PrecipitationMin - p.PrecipitationMin,
		}
	}
	return cmp
}

// ResolveYears turns configured comparison years into concrete ones. A zero current year
// means the latest year in the table; a zero previous year means current-1.
func ResolveYears(table models.Table, current, previous int) (int, int) {
	if current == 0 {
		if years := table.Years(); len(years) > 0 {
			current = years[len(years)-1]
		}
	}
	if previous == 0 {
		previous = current - 1
	}
	return current, previous
}
