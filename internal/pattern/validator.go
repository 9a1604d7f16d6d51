package pattern

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate checks that the rule can be compiled and evaluated.
func (r Rule) Validate() error {
	if r.MerchantPattern == "" {
		return errors.New("merchant pattern is required")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %.2f is outside 0..1", r.Confidence)
	}
	if r.IsRegex {
		if _, err := regexp.Compile(r.MerchantPattern); err != nil {
			return fmt.Errorf("invalid merchant pattern: %w", err)
		}
	}

	switch r.AmountCondition {
	case "", AmountAny:
	case AmountLT, AmountLE, AmountEQ, AmountGE, AmountGT:
		if r.AmountValue == nil {
			return fmt.Errorf("amount condition %q needs a value", r.AmountCondition)
		}
	case AmountRange:
		if r.AmountMin == nil && r.AmountMax == nil {
			return errors.New("amount range needs a minimum or maximum")
		}
		if r.AmountMin != nil && r.AmountMax != nil && r.AmountMin.GreaterThan(*r.AmountMax) {
			return errors.New("amount range minimum exceeds maximum")
		}
	default:
		return fmt.Errorf("unknown amount condition %q", r.AmountCondition)
	}
	return nil
}
