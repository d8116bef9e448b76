package dashboard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/chart"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
	"github.com/kjstillabower/seattle-weather-dashboard/internal/summary"
)

func twoRowTable() models.Table {
	return models.Table{
		{Date: time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), TempMax: 10, TempMin: 0, Wind: 5, Precipitation: 1, Weather: "sun"},
		{Date: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), TempMax: 12, TempMin: 2, Wind: 7, Precipitation: 3, Weather: "rain"},
	}
}

func input(table models.Table, selected []int) Input {
	return Input{
		Years:      table.Years(),
		Selected:   selected,
		Comparison: summary.Compare(table, 2015, 2014),
		Charts:     chart.BuildAll(table, chart.Options{}),
		Rows:       table,
		Icons:      Icons{Policy: PolicyFallback},
	}
}

func findMetric(t *testing.T, page Page, label string) Metric {
	t.Helper()
	for _, g := range page.MetricGroups {
		for _, m := range g.Metrics {
			if m.Label == label {
				return m
			}
		}
	}
	t.Fatalf("metric %q not found", label)
	return Metric{}
}

func TestAssemble_Metrics(t *testing.T) {
	page, err := Assemble(input(twoRowTable(), []int{2014, 2015}))
	require.NoError(t, err)

	assert.Equal(t, "2015 Summary", page.SummaryHeading)
	require.Len(t, page.MetricGroups, 4)

	maxTemp := findMetric(t, page, "Max temperature")
	assert.Equal(t, "12.0C", maxTemp.Value)
	assert.Equal(t, "+2.0C", maxTemp.Delta)
	assert.Equal(t, "up", maxTemp.Trend)

	precip := findMetric(t, page, "Max precipitation")
	assert.Equal(t, "3.0mm", precip.Value)
	assert.Equal(t, "+2.0mm", precip.Delta)

	assert.Equal(t, "7.0kt", findMetric(t, page, "Max wind").Value)
	assert.Equal(t, "💧", findMetric(t, page, "Most common weather").Value)
	assert.Empty(t, findMetric(t, page, "Most common weather").Delta)
	assert.Nil(t, page.Warning)
}

func TestAssemble_EmptySelection(t *testing.T) {
	table := twoRowTable()
	in := input(table, nil)
	in.Rows = models.Table{}
	in.Charts = chart.BuildAll(models.Table{}, chart.Options{})

	page, err := Assemble(in)
	require.NoError(t, err)
	require.NotNil(t, page.Warning)
	assert.Equal(t, EmptyWarning, page.Warning.Message)
	assert.Empty(t, page.Rows)
	assert.NotNil(t, page.Rows)
	assert.Equal(t, []int{}, page.YearSelect.Selected)
	// Summary cards do not depend on the selection.
	assert.Equal(t, "12.0C", findMetric(t, page, "Max temperature").Value)
}

func TestAssemble_AbsentComparisonYear(t *testing.T) {
	table := twoRowTable()[:1] // 2014 only
	page, err := Assemble(input(table, []int{2014}))
	require.NoError(t, err)

	m := findMetric(t, page, "Max temperature")
	assert.Equal(t, "–", m.Value)
	assert.Empty(t, m.Delta)
	assert.Equal(t, "–", findMetric(t, page, "Most common weather").Value)
}

func TestAssemble_PreviousYearAbsentOmitsDelta(t *testing.T) {
	table := twoRowTable()[1:] // 2015 only
	page, err := Assemble(input(table, []int{2015}))
	require.NoError(t, err)

	m := findMetric(t, page, "Max temperature")
	assert.Equal(t, "12.0C", m.Value)
	assert.Empty(t, m.Delta)
}

func TestAssemble_PanelsDetached(t *testing.T) {
	page, err := Assemble(input(twoRowTable(), []int{2014, 2015}))
	require.NoError(t, err)
	require.Len(t, page.PanelRows, 3)

	var charts int
	var tables int
	for _, row := range page.PanelRows {
		for _, p := range row.Panels {
			if p.Table {
				tables++
				continue
			}
			require.NotNil(t, p.Spec, p.Title)
			assert.Nil(t, p.Spec.Datasets, p.Title)
			charts++
		}
	}
	assert.Equal(t, 5, charts)
	assert.Equal(t, 1, tables)
	assert.Equal(t, 3, page.PanelRows[0].Panels[0].Weight)
}

func TestIcons_Policies(t *testing.T) {
	icon, err := Icons{}.Lookup("sun")
	require.NoError(t, err)
	assert.Equal(t, "☀️", icon)

	icon, err = Icons{Policy: PolicyFallback}.Lookup("hail")
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackIcon, icon)

	icon, err = Icons{Policy: PolicyFallback, Fallback: "?"}.Lookup("hail")
	require.NoError(t, err)
	assert.Equal(t, "?", icon)

	_, err = Icons{Policy: PolicyStrict}.Lookup("hail")
	assert.ErrorIs(t, err, ErrUnknownIcon)
}

func TestCheckIcons(t *testing.T) {
	table := twoRowTable()
	assert.NoError(t, CheckIcons(table, Icons{Policy: PolicyStrict}))

	table = append(table, models.WeatherRecord{Date: time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC), Weather: "hail"})
	assert.ErrorIs(t, CheckIcons(table, Icons{Policy: PolicyStrict}), ErrUnknownIcon)
	assert.NoError(t, CheckIcons(table, Icons{Policy: PolicyFallback}))
}

func TestAssemble_StrictUnknownLabel(t *testing.T) {
	table := twoRowTable()
	table[1].Weather = "hail"
	in := input(table, []int{2015})
	in.Icons = Icons{Policy: PolicyStrict}
	_, err := Assemble(in)
	assert.ErrorIs(t, err, ErrUnknownIcon)
}

func TestRender(t *testing.T) {
	page, err := Assemble(input(twoRowTable(), []int{2015}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, page))
	html := buf.String()

	assert.Contains(t, html, "<title>Seattle Weather</title>")
	assert.Contains(t, html, "Max temperature")
	assert.Contains(t, html, `<option value="2015" selected>`)
	assert.Contains(t, html, `<option value="2014">`)
	assert.Contains(t, html, `id="chart-wind"`)
	assert.Contains(t, html, "2015-01-01")
	assert.NotContains(t, html, EmptyWarning)
}

func TestRender_Warning(t *testing.T) {
	in := input(twoRowTable(), []int{})
	in.Rows = models.Table{}
	page, err := Assemble(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, page))
	assert.True(t, strings.Contains(buf.String(), EmptyWarning))
}

func TestMetric_TrendFollowsRoundedDelta(t *testing.T) {
	tests := []struct {
		delta     float64
		wantDelta string
		wantTrend string
	}{
		{-0.04, "+0.0C", "flat"},
		{0.04, "+0.0C", "flat"},
		{-0.06, "-0.1C", "down"},
		{0.05, "+0.1C", "up"},
		{2, "+2.0C", "up"},
	}
	for _, tt := range tests {
		d := tt.delta
		m := metric("Max temperature", true, 12, &d, "C")
		assert.Equal(t, tt.wantDelta, m.Delta, "delta %v", tt.delta)
		assert.Equal(t, tt.wantTrend, m.Trend, "delta %v", tt.delta)
	}
}
