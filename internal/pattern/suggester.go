package pattern

import (
	"fmt"

	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
)

// Suggester turns matching rules into category suggestions.
type Suggester struct {
	matcher *Matcher
}

// NewSuggester creates a suggester over matcher.
func NewSuggester(matcher *Matcher) *Suggester {
	return &Suggester{matcher: matcher}
}

// NewDefaultSuggester creates a suggester over DefaultRules.
func NewDefaultSuggester() *Suggester {
	m, err := NewMatcher(DefaultRules())
	if err != nil {
		panic(err)
	}
	return NewSuggester(m)
}

// Suggest returns one suggestion per category, best first.
func (s *Suggester) Suggest(pending model.PendingCategorization) []Suggestion {
	rules := s.matcher.Match(pending)

	suggestions := make([]Suggestion, 0, len(rules))
	seen := make(map[model.Category]bool)
	for _, rule := range rules {
		if seen[rule.Category] {
			continue
		}
		seen[rule.Category] = true

		suggestions = append(suggestions, Suggestion{
			Category:   rule.Category,
			Rule:       rule.Name,
			Confidence: rule.Confidence,
			Reason:     reason(pending, rule),
		})
	}
	return suggestions
}

// Best returns the top suggestion's category.
func (s *Suggester) Best(pending model.PendingCategorization) (model.Category, bool) {
	suggestions := s.Suggest(pending)
	if len(suggestions) == 0 {
		return "", false
	}
	return suggestions[0].Category, true
}

func reason(pending model.PendingCategorization, rule Rule) string {
	text := fmt.Sprintf("Payments to %s", pending.MerchantName)

	switch rule.AmountCondition {
	case AmountLT, AmountLE:
		text += " under " + format.Currency(*rule.AmountValue)
	case AmountGT, AmountGE:
		text += " over " + format.Currency(*rule.AmountValue)
	case AmountRange:
		if rule.AmountMin != nil && rule.AmountMax != nil {
			text += fmt.Sprintf(" between %s and %s", format.Currency(*rule.AmountMin), format.Currency(*rule.AmountMax))
		}
	}

	return text + " are usually " + rule.Category.Info().Label
}
