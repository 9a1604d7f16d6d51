// Package format renders amounts, dates and times the way the app displays them.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout renders dates as "15 Jan 2025".
	DateLayout = "2 Jan 2006"
	// TimeLayout renders times as "9:30 am".
	TimeLayout = "3:04 pm"
	// CurrencySymbol prefixes every rendered amount.
	CurrencySymbol = "₹"
)

// Currency renders an amount in rupees with no fractional digits and Indian
// digit grouping, e.g. ₹1,23,456.
func Currency(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + CurrencySymbol + groupIndian(rounded.StringFixed(0))
}

// CurrencyInt is Currency for whole rupee values.
func CurrencyInt(amount int64) string {
	return Currency(decimal.NewFromInt(amount))
}

// groupIndian inserts separators after the last three digits and then every
// two digits.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	return strings.Join(groups, ",") + "," + tail
}

// Date renders the date label used to group transactions.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Time renders a clock time such as "9:30 am".
func Time(t time.Time) string {
	return t.Format(TimeLayout)
}

// Ordinal renders a day of month with its English suffix, e.g. 15th.
func Ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(day) + suffix
}
