package chart

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/summary"
)

// The functions below evaluate server-side what the chart transforms ask the
// renderer to compute. They back the /api/series endpoints.

// WindPoint is the trailing wind statistics at one date.
type WindPoint struct {
	Date   string   `json:"date"`
	Year   int      `json:"year"`
	Wind   float64  `json:"wind"`
	Mean   float64  `json:"avg_wind"`
	StdDev *float64 `json:"std_wind"` // nil for a single-row window
	Rows   int      `json:"rows"`
}

// RollingWind computes, per year, the sample mean and sample standard deviation of wind
// over a trailing window of windowDays rows (windowDays-1 preceding rows plus the current one),
// matching the wind chart's window transform.
func RollingWind(table models.Table, windowDays int) []WindPoint {
	if windowDays <= 0 {
		windowDays = 15
	}
	points := make([]WindPoint, 0, table.Len())
	var (
		year  int
		winds []float64
	)
	for i, r := range table {
		if i == 0 || r.Year() != year {
			year = r.Year()
			winds = winds[:0]
		}
		winds = append(winds, r.Wind)
		lo := len(winds) - windowDays
		if lo < 0 {
			lo = 0
		}
		window := winds[lo:]

		p := WindPoint{Date: r.Date.Format(models.DateLayout), Year: year, Wind: r.Wind, Rows: len(window)}
		var std float64
		p.Mean, std = stat.MeanStdDev(window, nil)
		if len(window) > 1 && !math.IsNaN(std) {
			p.StdDev = &std
		}
		points = append(points, p)
	}
	return points
}

// MonthlyTotal is the precipitation sum of one calendar month of one year.
type MonthlyTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"precipitation"`
}

// MonthlyPrecipitation sums precipitation per (year, month), ordered by year then month.
func MonthlyPrecipitation(table models.Table) []MonthlyTotal {
	type key struct{ year, month int }
	values := make(map[key][]float64)
	var keys []key
	for _, r := range table {
		k := key{r.Year(), int(r.Date.Month())}
		if _, ok := values[k]; !ok {
			keys = append(keys, k)
		}
		values[k] = append(values[k], r.Precipitation)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	out := make([]MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthlyTotal{Year: k.year, Month: k.month, Total: floats.Sum(values[k])})
	}
	return out
}

// MonthlyShare is the fraction of days in a calendar month (all selected years combined)
// that carried a weather label.
type MonthlyShare struct {
	Month   int     `json:"month"`
	Weather string  `json:"weather"`
	Days    int     `json:"days"`
	Share   float64 `json:"share"`
}

// MonthlyWeatherShares normalizes weather label counts per calendar month.
// For every month present, the shares sum to 1.
func MonthlyWeatherShares(table models.Table) []MonthlyShare {
	byMonth := make(map[time.Month]models.Table)
	for _, r := range table {
		byMonth[r.Date.Month()] = append(byMonth[r.Date.Month()], r)
	}
	out := []MonthlyShare{}
	for m := time.January; m <= time.December; m++ {
		rows, ok := byMonth[m]
		if !ok {
			continue
		}
		total := float64(rows.Len())
		for _, c := range summary.Frequencies(rows) {
			out = append(out, MonthlyShare{
				Month:   int(m),
				Weather: c.Weather,
				Days:    c.Days,
				Share:   float64(c.Days) / total,
			})
		}
	}
	return out
}

// LabelShare is the count and share of days per weather label.
type LabelShare struct {
	Weather string  `json:"weather"`
	Days    int     `json:"days"`
	Share   float64 `json:"share"`
}

// LabelDistribution counts days per weather label, in order of first appearance.
func LabelDistribution(table models.Table) []LabelShare {
	freq := summary.Frequencies(table)
	out := make([]LabelShare, 0, len(freq))
	for _, c := range freq {
		out = append(out, LabelShare{Weather: c.Weather, Days: c.Days, Share: float64(c.Days) / float64(table.Len())})
	}
	return out
}

// Series evaluates the reference series behind the named chart.
func Series(name string, table models.Table, opts Options) (any, error) {
	opts = opts.withDefaults()
	switch name {
	case Wind:
		return RollingWind(table, opts.WindWindowDays), nil
	case Precipitation:
		return MonthlyPrecipitation(table), nil
	case WeatherBreakdown:
		return MonthlyWeatherShares(table), nil
	case WeatherDistribution:
		return LabelDistribution(table), nil
	default:
		return nil, fmt.Errorf("%w: no series for %q", ErrUnknownChart, name)
	}
}
