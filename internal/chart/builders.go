package chart

import (
	"errors"
	"fmt"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

// Chart names, also used as URL path segments.
const (
	Temperature         = "temperature"
	WeatherDistribution = "weather-distribution"
	Wind                = "wind"
	Precipitation       = "precipitation"
	WeatherBreakdown    = "weather-breakdown"
)

// ErrUnknownChart is returned by Build for a name that has no builder.
var ErrUnknownChart = errors.New("unknown chart")

// Options tune the builders.
type Options struct {
	// LegendOrient places every legend (default "bottom").
	LegendOrient string
	// WindWindowDays is the number of rows in the trailing wind window, current day included (default 15).
	WindWindowDays int
}

func (o Options) withDefaults() Options {
	if o.LegendOrient == "" {
		o.LegendOrient = "bottom"
	}
	if o.WindWindowDays <= 0 {
		o.WindWindowDays = 15
	}
	return o
}

// Builder turns a filtered table into a chart spec.
type Builder func(models.Table, Options) Spec

var builders = map[string]Builder{
	Temperature:         BuildTemperature,
	WeatherDistribution: BuildWeatherDistribution,
	Wind:                BuildWind,
	Precipitation:       BuildPrecipitation,
	WeatherBreakdown:    BuildWeatherBreakdown,
}

// Names lists the charts in dashboard order.
func Names() []string {
	return []string{Temperature, WeatherDistribution, Wind, Precipitation, WeatherBreakdown}
}

// Build runs the named builder.
func Build(name string, table models.Table, opts Options) (Spec, error) {
	b, ok := builders[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return b(table, opts), nil
}

// BuildAll runs every builder, keyed by chart name.
func BuildAll(table models.Table, opts Options) map[string]Spec {
	out := make(map[string]Spec, len(builders))
	for name, b := range builders {
		out[name] = b(table, opts)
	}
	return out
}

func base(table models.Table, opts Options, description string) Spec {
	opts = opts.withDefaults()
	return Spec{
		Schema:      SchemaURL,
		Description: description,
		Width:       "container",
		Data:        Data{Name: DatasetName},
		Datasets:    map[string][]models.Row{DatasetName: table.Rows()},
		Config:      &Config{Legend: &LegendConfig{Orient: opts.LegendOrient}},
	}
}

func yearColor() *FieldDef {
	return &FieldDef{Field: "date", Type: Nominal, TimeUnit: UnitYear, Title: "year"}
}

func monthDateX() *FieldDef {
	return &FieldDef{Field: "date", TimeUnit: UnitMonthDate, Title: "date"}
}

// BuildTemperature draws one bar per day spanning temp_min..temp_max on a shared
// month-day axis, offset and colored by year so years overlay.
func BuildTemperature(table models.Table, opts Options) Spec {
	s := base(table, opts, "Daily temperature range by year")
	s.Mark = Mark{Type: "bar", Width: ptr(1)}
	s.Encoding = Encoding{
		X:       monthDateX(),
		Y:       &FieldDef{Field: "temp_max", Type: Quantitative, Title: "temperature range (C)"},
		Y2:      &FieldDef{Field: "temp_min"},
		Color:   yearColor(),
		XOffset: &FieldDef{Field: "date", Type: Nominal, TimeUnit: UnitYear},
	}
	return s
}

// BuildWeatherDistribution draws the share of days per weather label as arcs.
func BuildWeatherDistribution(table models.Table, opts Options) Spec {
	s := base(table, opts, "Days per weather type")
	s.Mark = Mark{Type: "arc"}
	s.Encoding = Encoding{
		Theta: &FieldDef{Aggregate: "count", Type: Quantitative},
		Color: &FieldDef{Field: "weather", Type: Nominal},
	}
	return s
}

// BuildWind draws the trailing mean of wind per year. The window covers the
// WindWindowDays-1 preceding rows plus the current one; the standard deviation is
// computed alongside but not drawn.
func BuildWind(table models.Table, opts Options) Spec {
	opts = opts.withDefaults()
	s := base(table, opts, "Trailing average wind by year")
	s.Transform = []Transform{
		{TimeUnit: UnitYear, Field: "date", As: "year"},
		{
			Window: []WindowOp{
				{Op: "mean", Field: "wind", As: "avg_wind"},
				{Op: "stdev", Field: "wind", As: "std_wind"},
			},
			Frame:   []int{-(opts.WindWindowDays - 1), 0},
			GroupBy: []string{"year"},
			Sort:    []SortField{{Field: "date", Order: "ascending"}},
		},
	}
	s.Mark = Mark{Type: "line", Size: ptr(1)}
	s.Encoding = Encoding{
		X:     monthDateX(),
		Y:     &FieldDef{Field: "avg_wind", Type: Quantitative, Title: "average wind past 2 weeks (kt)"},
		Color: yearColor(),
	}
	return s
}

// BuildPrecipitation draws total precipitation per calendar month, colored by year.
func BuildPrecipitation(table models.Table, opts Options) Spec {
	s := base(table, opts, "Monthly precipitation by year")
	s.Mark = Mark{Type: "bar"}
	s.Encoding = Encoding{
		X:     &FieldDef{Field: "date", Type: Nominal, TimeUnit: UnitMonth, Title: "date"},
		Y:     &FieldDef{Field: "precipitation", Type: Quantitative, Aggregate: "sum", Title: "precipitation (mm)"},
		Color: yearColor(),
	}
	return s
}

// BuildWeatherBreakdown draws, per calendar month, the normalized share of days
// for each weather label across all selected years.
func BuildWeatherBreakdown(table models.Table, opts Options) Spec {
	s := base(table, opts, "Monthly weather breakdown")
	s.Mark = Mark{Type: "bar"}
	s.Encoding = Encoding{
		X:     &FieldDef{Field: "date", Type: Ordinal, TimeUnit: UnitMonth, Title: "month"},
		Y:     &FieldDef{Aggregate: "count", Type: Quantitative, Stack: "normalize", Title: "days"},
		Color: &FieldDef{Field: "weather", Type: Nominal},
	}
	return s
}
