package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/smarttrack/internal/model"
)

// Matcher evaluates payments against a fixed rule set.
type Matcher struct {
	compiled map[int]*regexp.Regexp
	rules    []Rule
}

// NewMatcher validates rules and compiles their patterns.
func NewMatcher(rules []Rule) (*Matcher, error) {
	m := &Matcher{
		rules:    append([]Rule(nil), rules...),
		compiled: make(map[int]*regexp.Regexp),
	}

	for i, rule := range m.rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		if rule.IsRegex {
			m.compiled[i] = regexp.MustCompile("(?i)" + rule.MerchantPattern)
		}
	}

	return m, nil
}

// Match returns the rules matching pending, highest priority first. Rules of
// equal priority keep their declared order.
func (m *Matcher) Match(pending model.PendingCategorization) []Rule {
	var matches []Rule
	for i, rule := range m.rules {
		if m.matchesMerchant(i, rule, pending.MerchantName) && matchesAmount(rule, pending) {
			matches = append(matches, rule)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})
	return matches
}

func (m *Matcher) matchesMerchant(i int, rule Rule, merchant string) bool {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return false
	}
	if re, ok := m.compiled[i]; ok {
		return re.MatchString(merchant)
	}
	return strings.EqualFold(rule.MerchantPattern, merchant)
}

func matchesAmount(rule Rule, pending model.PendingCategorization) bool {
	amount := pending.Amount

	switch rule.AmountCondition {
	case "", AmountAny:
		return true
	case AmountLT:
		return amount.LessThan(*rule.AmountValue)
	case AmountLE:
		return amount.LessThanOrEqual(*rule.AmountValue)
	case AmountEQ:
		return amount.Equal(*rule.AmountValue)
	case AmountGE:
		return amount.GreaterThanOrEqual(*rule.AmountValue)
	case AmountGT:
		return amount.GreaterThan(*rule.AmountValue)
	case AmountRange:
		if rule.AmountMin != nil && amount.LessThan(*rule.AmountMin) {
			return false
		}
		if rule.AmountMax != nil && amount.GreaterThan(*rule.AmountMax) {
			return false
		}
		return true
	}

	return false
}
