// Package chart builds declarative Vega-Lite chart specifications from a weather table.
// Rendering, aggregation and axis generation happen in the browser; this package only
// describes marks, encodings and transforms.
package chart

import (
	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

// SchemaURL is the Vega-Lite schema the specs target.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// DatasetName is the name the weather rows are registered under in every spec.
const DatasetName = "weather"

// Spec is a single-view Vega-Lite specification.
type Spec struct {
	Schema      string                  `json:"$schema"`
	Description string                  `json:"description,omitempty"`
	Width       string                  `json:"width,omitempty"`
	Data        Data                    `json:"data"`
	Datasets    map[string][]models.Row `json:"datasets,omitempty"`
	Transform   []Transform             `json:"transform,omitempty"`
	Mark        Mark                    `json:"mark"`
	Encoding    Encoding                `json:"encoding"`
	Config      *Config                 `json:"config,omitempty"`
}

// Detach returns a copy of the spec without inline datasets. The page supplies the
// rows once and attaches them client-side.
func (s Spec) Detach() Spec {
	s.Datasets = nil
	return s
}

// Data references a named dataset.
type Data struct {
	Name string `json:"name"`
}

// Mark is the graphical mark and its static properties.
type Mark struct {
	Type  string   `json:"type"`
	Width *float64 `json:"width,omitempty"`
	Size  *float64 `json:"size,omitempty"`
}

// Encoding binds data fields to visual channels.
type Encoding struct {
	X       *FieldDef `json:"x,omitempty"`
	Y       *FieldDef `json:"y,omitempty"`
	Y2      *FieldDef `json:"y2,omitempty"`
	Color   *FieldDef `json:"color,omitempty"`
	XOffset *FieldDef `json:"xOffset,omitempty"`
	Theta   *FieldDef `json:"theta,omitempty"`
}

// FieldDef is a channel definition.
type FieldDef struct {
	Field     string `json:"field,omitempty"`
	Type      string `json:"type,omitempty"`
	TimeUnit  string `json:"timeUnit,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
	Stack     string `json:"stack,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Transform is one entry of the transform pipeline. Only the fields of the
// transform kind in use are set.
type Transform struct {
	// timeUnit transform
	TimeUnit string `json:"timeUnit,omitempty"`
	Field    string `json:"field,omitempty"`
	As       string `json:"as,omitempty"`

	// window transform
	Window  []WindowOp  `json:"window,omitempty"`
	Frame   []int       `json:"frame,omitempty"`
	GroupBy []string    `json:"groupby,omitempty"`
	Sort    []SortField `json:"sort,omitempty"`
}

// WindowOp is a single window aggregate.
type WindowOp struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	As    string `json:"as"`
}

// SortField orders rows inside a window partition.
type SortField struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// Config holds view-level configuration.
type Config struct {
	Legend *LegendConfig `json:"legend,omitempty"`
}

// LegendConfig positions legends.
type LegendConfig struct {
	Orient string `json:"orient,omitempty"`
}

// Channel types.
const (
	Quantitative = "quantitative"
	Nominal      = "nominal"
	Ordinal      = "ordinal"
)

// UTC time units; row dates are UTC calendar dates.
const (
	UnitMonthDate = "utcmonthdate"
	UnitYear      = "utcyear"
	UnitMonth     = "utcmonth"
)

func ptr(v float64) *float64 {
	return &v
}
