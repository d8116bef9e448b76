package filter

import (
	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

// ByYears returns the rows whose date falls in one of years, in table order.
// An empty year set yields an empty table. The source table is not modified.
func ByYears(table models.Table, years []int) models.Table {
	out := models.Table{}
	if len(years) == 0 {
		return out
	}
	set := make(map[int]struct{}, len(years))
	for _, y := range years {
		set[y] = struct{}{}
	}
	for _, r := range table {
		if _, ok := set[r.Year()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Partition splits the table by year. Concatenating the parts in ascending year
// order reconstructs a date-ordered table.
func Partition(table models.Table) map[int]models.Table {
	parts := make(map[int]models.Table)
	for _, r := range table {
		parts[r.Year()] = append(parts[r.Year()], r)
	}
	return parts
}
