// Package pattern suggests a category for an incoming payment from rules over
// its merchant name and amount.
package pattern

import (
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

// Amount conditions a rule may place on a payment.
const (
	AmountAny   = "any"
	AmountLT    = "lt"
	AmountLE    = "le"
	AmountEQ    = "eq"
	AmountGE    = "ge"
	AmountGT    = "gt"
	AmountRange = "range"
)

// Rule maps payments whose merchant matches MerchantPattern to Category.
// Patterns match the whole merchant name case-insensitively unless IsRegex
// is set, in which case they match anywhere in it.
type Rule struct {
	AmountValue     *decimal.Decimal
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	Name            string
	MerchantPattern string
	AmountCondition string
	Category        model.Category
	Confidence      float64
	Priority        int
	IsRegex         bool
}

// Suggestion is a proposed category and why it was proposed.
type Suggestion struct {
	Category   model.Category
	Rule       string
	Reason     string
	Confidence float64
}
