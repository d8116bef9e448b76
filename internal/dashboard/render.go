package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"isSelected": func(selected []int, year int) bool { return slices.Contains(selected, year) },
}).ParseFS(templateFS, "templates/dashboard.html"))

// Render writes the page as HTML. Charts are drawn client-side by vega-embed from the
// page's specs; the rows are shipped once and attached to every spec as its dataset.
func Render(w io.Writer, page Page) error {
	if err := pageTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
