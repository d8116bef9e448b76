package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/models"
)

// Icon policies for weather labels missing from the icon table.
const (
	PolicyFallback = "fallback"
	PolicyStrict   = "strict"
)

// DefaultFallbackIcon is shown for unknown labels under the fallback policy.
const DefaultFallbackIcon = "❔"

// ErrUnknownIcon is returned when a label has no icon under the strict policy.
var ErrUnknownIcon = errors.New("no icon for weather label")

var weatherIcons = map[string]string{
	"sun":     "☀️",
	"snow":    "☃️",
	"rain":    "💧",
	"fog":     "😶‍🌫️",
	"drizzle": "🌧️",
}

// Icons maps weather labels to glyphs.
type Icons struct {
	Policy   string
	Fallback string
}

// Lookup returns the glyph for label. Under the strict policy an unknown label is an error;
// otherwise the fallback glyph is returned.
func (i Icons) Lookup(label string) (string, error) {
	if icon, ok := weatherIcons[strings.ToLower(label)]; ok {
		return icon, nil
	}
	if i.Policy == PolicyStrict {
		return "", fmt.Errorf("%w: %q", ErrUnknownIcon, label)
	}
	if i.Fallback == "" {
		return DefaultFallbackIcon, nil
	}
	return i.Fallback, nil
}

// CheckIcons verifies every label of the table has an icon under the given policy.
// Run once after load so a strict policy fails at startup instead of during a render.
func CheckIcons(table models.Table, icons Icons) error {
	for _, label := range table.Labels() {
		if _, err := icons.Lookup(label); err != nil {
			return err
		}
	}
	return nil
}
