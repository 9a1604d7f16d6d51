package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Category is the closed set of spending categories a transaction can carry.
type Category string

const (
	// CategoryFood covers restaurants, delivery and snacks.
	CategoryFood Category = "food"
	// CategoryDaily covers groceries and daily needs.
	CategoryDaily Category = "daily"
	// CategoryMedical covers pharmacies and healthcare.
	CategoryMedical Category = "medical"
	// CategoryTransport covers rides and fuel.
	CategoryTransport Category = "transport"
	// CategoryEntertainment covers movies and events.
	CategoryEntertainment Category = "entertainment"
	// CategoryShopping covers retail purchases.
	CategoryShopping Category = "shopping"
	// CategoryOther is the catch-all category.
	CategoryOther Category = "other"
)

// ErrUnknownCategory is returned when a string does not name a category.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryInfo holds the presentation metadata for a category.
type CategoryInfo struct {
	Label string
	Glyph string
	Color string
}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryDaily,
		CategoryMedical,
		CategoryTransport,
		CategoryEntertainment,
		CategoryShopping,
		CategoryOther,
	}
}

// PromptChoices returns the categories offered when asking the user to
// categorize a payment. The last entry is the catch-all.
func PromptChoices() []Category {
	return []Category{
		CategoryFood,
		CategoryDaily,
		CategoryMedical,
		CategoryShopping,
		CategoryOther,
	}
}

// Info returns the display metadata for c. It panics for values outside the
// enumerated set.
func (c Category) Info() CategoryInfo {
	switch c {
	case CategoryFood:
		return CategoryInfo{Label: "Food", Glyph: "🍽️", Color: "orange"}
	case CategoryDaily:
		return CategoryInfo{Label: "Daily Needs", Glyph: "🛒", Color: "blue"}
	case CategoryMedical:
		return CategoryInfo{Label: "Medical", Glyph: "💊", Color: "green"}
	case CategoryTransport:
		return CategoryInfo{Label: "Transport", Glyph: "🚗", Color: "purple"}
	case CategoryEntertainment:
		return CategoryInfo{Label: "Entertainment", Glyph: "🎬", Color: "pink"}
	case CategoryShopping:
		return CategoryInfo{Label: "Shopping", Glyph: "🛍️", Color: "yellow"}
	case CategoryOther:
		return CategoryInfo{Label: "Other", Glyph: "📦", Color: "gray"}
	}
	panic(fmt.Sprintf("model: no registry entry for category %q", string(c)))
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Display renders the glyph and label, e.g. "🍽️ Food".
func (c Category) Display() string {
	info := c.Info()
	return info.Glyph + " " + info.Label
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves an identifier or label (case-insensitive) to a category.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownCategory)
	}
	for _, c := range AllCategories() {
		if needle == string(c) || needle == strings.ToLower(c.Info().Label) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// ClosestCategory returns the category whose id or label is nearest to input
// by edit distance. Matches further than two edits away are rejected.
func ClosestCategory(input string) (Category, bool) {
	if c, err := ParseCategory(input); err == nil {
		return c, true
	}

	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return "", false
	}

	const maxDistance = 2
	best := Category("")
	bestDistance := maxDistance + 1
	for _, c := range AllCategories() {
		for _, candidate := range []string{string(c), strings.ToLower(c.Info().Label)} {
			if d := levenshtein.ComputeDistance(needle, candidate); d < bestDistance {
				best = c
				bestDistance = d
			}
		}
	}
	if bestDistance > maxDistance {
		return "", false
	}
	return best, true
}
