package plaid

import (
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
)

// Payment is an outgoing bank-feed transaction waiting for a category.
type Payment struct {
	Date      time.Time
	AccountID string
	Name      string
	// Suggested is derived from Plaid's personal finance category and is
	// empty when no mapping applies.
	Suggested model.Category
	Pending   model.PendingCategorization
}

// primaryCategories maps Plaid personal finance primaries onto categories.
var primaryCategories = map[string]model.Category{
	"FOOD_AND_DRINK":      model.CategoryFood,
	"MEDICAL":             model.CategoryMedical,
	"TRANSPORTATION":      model.CategoryTransport,
	"TRAVEL":              model.CategoryTransport,
	"ENTERTAINMENT":       model.CategoryEntertainment,
	"GENERAL_MERCHANDISE": model.CategoryShopping,
	"HOME_IMPROVEMENT":    model.CategoryShopping,
	"PERSONAL_CARE":       model.CategoryDaily,
	"RENT_AND_UTILITIES":  model.CategoryDaily,
}

// detailedCategories refines primaries whose details split across categories.
var detailedCategories = map[string]model.Category{
	"FOOD_AND_DRINK_GROCERIES":               model.CategoryDaily,
	"GENERAL_MERCHANDISE_SUPERSTORES":        model.CategoryDaily,
	"GENERAL_MERCHANDISE_PHARMACIES":         model.CategoryMedical,
	"GENERAL_MERCHANDISE_CONVENIENCE_STORES": model.CategoryDaily,
}

// SuggestCategory maps a Plaid personal finance category onto a category.
func SuggestCategory(primary, detailed string) (model.Category, bool) {
	if c, ok := detailedCategories[strings.ToUpper(detailed)]; ok {
		return c, true
	}
	c, ok := primaryCategories[strings.ToUpper(primary)]
	return c, ok
}

// SortOldestFirst orders payments by date, then ID, so prompts follow the
// statement.
func SortOldestFirst(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].Date.Equal(payments[j].Date) {
			return payments[i].Date.Before(payments[j].Date)
		}
		return payments[i].Pending.ID < payments[j].Pending.ID
	})
}

// DropRecorded removes payments whose source ID is already in the ledger and
// reports how many were removed.
func DropRecorded(payments []Payment, recorded map[string]bool) ([]Payment, int) {
	kept := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if id := p.Pending.SourceID; id == "" || !recorded[id] {
			kept = append(kept, p)
		}
	}
	return kept, len(payments) - len(kept)
}
