// Package dashboard lays the summary, filter and chart outputs into a page.
// It performs no computation of its own beyond formatting.
package dashboard

import (
	"fmt"
	"math"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/chart"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/summary"
)

const (
	PageTitle      = "Seattle Weather"
	PageIcon       = "🌦️"
	EmptyWarning   = "You must select at least 1 year."
	WarningIcon    = "⚠️"
	missingValue   = "–"
	yearMultiLabel = "Years to show"
)

// Input is everything the page shows, already computed.
type Input struct {
	Years      []int // all years in the table
	Selected   []int
	Comparison summary.Comparison
	Charts     map[string]chart.Spec
	Rows       models.Table // filtered rows
	Icons      Icons
}

// Page is the assembled dashboard.
type Page struct {
	Title          string        `json:"title"`
	Icon           string        `json:"icon"`
	Layout         string        `json:"layout"`
	SummaryHeading string        `json:"summaryHeading"`
	MetricGroups   []MetricGroup `json:"metricGroups"`
	YearSelect     YearSelect    `json:"yearSelect"`
	Warning        *Warning      `json:"warning,omitempty"`
	PanelRows      []PanelRow    `json:"panelRows"`
	Rows           []models.Row  `json:"rows"`
}

// MetricGroup is one bordered card holding a pair of metrics.
type MetricGroup struct {
	Metrics []Metric `json:"metrics"`
}

// Metric is a labeled value with an optional signed delta.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
	// Trend is "up", "down" or "flat" when Delta is set.
	Trend string `json:"trend,omitempty"`
}

// YearSelect is the year multiselect control.
type YearSelect struct {
	Label    string `json:"label"`
	Options  []int  `json:"options"`
	Selected []int  `json:"selected"`
}

// Warning is a non-fatal notice shown above the charts.
type Warning struct {
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// PanelRow is one row of the panel grid.
type PanelRow struct {
	Panels []Panel `json:"panels"`
}

// Panel is a bordered container holding either a chart or the raw data table.
type Panel struct {
	Title  string      `json:"title"`
	Weight int         `json:"weight"`
	Chart  string      `json:"chart,omitempty"`
	Spec   *chart.Spec `json:"spec,omitempty"`
	Table  bool        `json:"table,omitempty"`
}

// Assemble lays the input out as a page.
func Assemble(in Input) (Page, error) {
	groups, err := metricGroups(in.Comparison, in.Icons)
	if err != nil {
		return Page{}, err
	}

	selected := in.Selected
	if selected == nil {
		selected = []int{}
	}
	page := Page{
		Title:          PageTitle,
		Icon:           PageIcon,
		Layout:         "wide",
		SummaryHeading: fmt.Sprintf("%d Summary", in.Comparison.Current.Year),
		MetricGroups:   groups,
		YearSelect:     YearSelect{Label: yearMultiLabel, Options: in.Years, Selected: selected},
		Rows:           in.Rows.Rows(),
	}
	if len(in.Selected) == 0 {
		page.Warning = &Warning{Message: EmptyWarning, Icon: WarningIcon}
	}

	panel := func(title, name string, weight int) Panel {
		p := Panel{Title: title, Chart: name, Weight: weight}
		if spec, ok := in.Charts[name]; ok {
			detached := spec.Detach()
			p.Spec = &detached
		}
		return p
	}
	page.PanelRows = []PanelRow{
		{Panels: []Panel{panel("Temperature", chart.Temperature, 3), panel("Weather distribution", chart.WeatherDistribution, 1)}},
		{Panels: []Panel{panel("Wind", chart.Wind, 1), panel("Precipitation", chart.Precipitation, 1)}},
		{Panels: []Panel{panel("Monthly weather breakdown", chart.WeatherBreakdown, 1), {Title: "Raw data", Weight: 1, Table: true}}},
	}
	return page, nil
}

func metricGroups(cmp summary.Comparison, icons Icons) ([]MetricGroup, error) {
	cur, d := cmp.Current, cmp.Deltas
	pick := func(f func(summary.Deltas) float64) *float64 {
		if d == nil {
			return nil
		}
		v := f(*d)
		return &v
	}

	groups := []MetricGroup{
		{Metrics: []Metric{
			metric("Max temperature", cur.Present, cur.TempMax, pick(func(d summary.Deltas) float64 { return d.TempMax }), "C"),
			metric("Min temperature", cur.Present, cur.TempMin, pick(func(d summary.Deltas) float64 { return d.TempMin }), "C"),
		}},
		{Metrics: []Metric{
			metric("Max precipitation", cur.Present, cur.PrecipitationMax, pick(func(d summary.Deltas) float64 { return d.PrecipitationMax }), "mm"),
			metric("Min precipitation", cur.Present, cur.PrecipitationMin, pick(func(d summary.Deltas) float64 { return d.PrecipitationMin }), "mm"),
		}},
		{Metrics: []Metric{
			metric("Max wind", cur.Present, cur.WindMax, pick(func(d summary.Deltas) float64 { return d.WindMax }), "kt"),
			metric("Min wind", cur.Present, cur.WindMin, pick(func(d summary.Deltas) float64 { return d.WindMin }), "kt"),
		}},
	}

	most, least := missingValue, missingValue
	if cur.Present {
		var err error
		if most, err = icons.Lookup(cur.MostCommon); err != nil {
			return nil, err
		}
		if least, err = icons.Lookup(cur.LeastCommon); err != nil {
			return nil, err
		}
	}
	groups = append(groups, MetricGroup{Metrics: []Metric{
		{Label: "Most common weather", Value: most},
		{Label: "Least common weather", Value: least},
	}})
	return groups, nil
}

func metric(label string, present bool, value float64, delta *float64, unit string) Metric {
	m := Metric{Label: label, Value: missingValue}
	if !present {
		return m
	}
	m.Value = fmt.Sprintf("%.1f%s", value, unit)
	if delta != nil {
		// Trend follows the displayed value, so -0.04 reads "+0.0" and flat.
		shown := math.Round(*delta*10) / 10
		if shown == 0 {
			shown = 0
		}
		m.Delta = fmt.Sprintf("%+.1f%s", shown, unit)
		switch {
		case shown > 0:
			m.Trend = "up"
		case shown < 0:
			m.Trend = "down"
		default:
			m.Trend = "flat"
		}
	}
	return m
}
