package validation

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidYear is returned when a year parameter is not an integer.
var ErrInvalidYear = errors.New("year must be an integer")

// ErrUnknownYear is returned when a year is not present in the dataset.
var ErrUnknownYear = errors.New("year not in dataset")

// FilterMarker is the query parameter the year form always submits, so an empty
// multiselect can be told apart from a first visit.
const FilterMarker = "filter"

// Selection is the parsed year filter of a request.
type Selection struct {
	Years []int // sorted, distinct; empty means nothing selected
	// Explicit is false when the request carried neither years nor the filter marker,
	// in which case Years defaults to every available year.
	Explicit bool
}

// ParseSelection reads the repeatable, comma-separable "year" parameter.
// Without years or filter marker every available year is selected; with only the marker the
// selection is empty. Unparsable years yield ErrInvalidYear, years outside available yield
// ErrUnknownYear, both suitable for 400 responses.
func ParseSelection(q url.Values, available []int) (Selection, error) {
	raw := q["year"]
	_, marked := q[FilterMarker]
	if len(raw) == 0 && !marked {
		return Selection{Years: slices.Clone(available)}, nil
	}

	years := []int{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := ParseYear(part)
			if err != nil {
				return Selection{}, err
			}
			if !slices.Contains(available, y) {
				return Selection{}, fmt.Errorf("%w: %d", ErrUnknownYear, y)
			}
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return Selection{Years: slices.Compact(years), Explicit: true}, nil
}

// ParseYear parses a single year value. Empty input returns 0, nil.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return y, nil
}
