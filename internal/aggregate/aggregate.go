// Package aggregate turns transaction lists into totals, rankings and
// date groupings. Every function is pure and safe for concurrent use.
package aggregate

import (
	"sort"
	"time"

	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultTopCategories is the number of categories shown in a summary.
const DefaultTopCategories = 4

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Amount     decimal.Decimal `json:"amount"`
	Category   model.Category  `json:"category"`
	Count      int             `json:"count"`
	Percentage int             `json:"percentage"`
}

// DateGroup holds the transactions created on one calendar day.
type DateGroup struct {
	Date         time.Time           `json:"date"`
	Label        string              `json:"label"`
	Transactions []model.Transaction `json:"transactions"`
}

// Summary is the spending overview of a transaction list.
type Summary struct {
	TopCategory *CategoryTotal  `json:"top_category,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Categories  []CategoryTotal `json:"categories"`
	Count       int             `json:"count"`
}

// TotalOf sums every amount. It returns zero for an empty list.
func TotalOf(txns []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range txns {
		total = total.Add(txn.Amount)
	}
	return total
}

// TotalsByCategory sums amounts per category. Categories without
// transactions are absent from the result.
func TotalsByCategory(txns []model.Transaction) map[model.Category]decimal.Decimal {
	totals := make(map[model.Category]decimal.Decimal)
	for _, txn := range txns {
		totals[txn.Category] = totals[txn.Category].Add(txn.Amount)
	}
	return totals
}

// RankedCategories orders categories by total descending. Equal totals keep
// the order in which each category first appears in txns.
func RankedCategories(txns []model.Transaction) []CategoryTotal {
	index := make(map[model.Category]int)
	ranked := make([]CategoryTotal, 0)

	for _, txn := range txns {
		i, ok := index[txn.Category]
		if !ok {
			i = len(ranked)
			index[txn.Category] = i
			ranked = append(ranked, CategoryTotal{Category: txn.Category, Amount: decimal.Zero})
		}
		ranked[i].Amount = ranked[i].Amount.Add(txn.Amount)
		ranked[i].Count++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount.GreaterThan(ranked[j].Amount)
	})

	total := TotalOf(txns)
	for i := range ranked {
		ranked[i].Percentage = Percentage(ranked[i].Amount, total)
	}

	return ranked
}

// TopN returns at most n leading entries of a ranking.
func TopN(ranked []CategoryTotal, n int) []CategoryTotal {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// Percentage returns amount as a rounded share of total. A zero total yields 0.
func Percentage(amount, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	return int(amount.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// GroupByDate buckets transactions by the date label of their creation time
// in loc. Order within each bucket follows the input.
func GroupByDate(txns []model.Transaction, loc *time.Location) map[string][]model.Transaction {
	if loc == nil {
		loc = time.UTC
	}
	groups := make(map[string][]model.Transaction)
	for _, txn := range txns {
		label := format.Date(txn.CreatedAt.In(loc))
		groups[label] = append(groups[label], txn)
	}
	return groups
}

// DateGroups returns the GroupByDate buckets ordered newest day first.
func DateGroups(txns []model.Transaction, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.UTC
	}

	buckets := GroupByDate(txns, loc)
	groups := make([]DateGroup, 0, len(buckets))
	for label, members := range buckets {
		local := members[0].CreatedAt.In(loc)
		groups = append(groups, DateGroup{
			Label:        label,
			Date:         time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
			Transactions: members,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})

	return groups
}

// Summarize builds the spending overview with at most topN categories.
func Summarize(txns []model.Transaction, topN int) Summary {
	ranked := RankedCategories(txns)
	summary := Summary{
		Total:      TotalOf(txns),
		Count:      len(txns),
		Categories: TopN(ranked, topN),
	}
	if len(ranked) > 0 {
		top := ranked[0]
		summary.TopCategory = &top
	}
	return summary
}

// Filter returns the transactions for which keep reports true, preserving order.
func Filter(txns []model.Transaction, keep func(model.Transaction) bool) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		if keep(txn) {
			out = append(out, txn)
		}
	}
	return out
}

// InCategory returns the transactions in category c.
func InCategory(txns []model.Transaction, c model.Category) []model.Transaction {
	return Filter(txns, func(txn model.Transaction) bool {
		return txn.Category == c
	})
}

// Earliest returns the transaction with the oldest creation time. Ties keep
// the first in input order.
func Earliest(txns []model.Transaction) (model.Transaction, bool) {
	if len(txns) == 0 {
		return model.Transaction{}, false
	}
	earliest := txns[0]
	for _, txn := range txns[1:] {
		if txn.CreatedAt.Before(earliest.CreatedAt) {
			earliest = txn
		}
	}
	return earliest, true
}

// Latest returns the transaction with the newest creation time. Ties keep
// the first in input order.
func Latest(txns []model.Transaction) (model.Transaction, bool) {
	if len(txns) == 0 {
		return model.Transaction{}, false
	}
	latest := txns[0]
	for _, txn := range txns[1:] {
		if txn.CreatedAt.After(latest.CreatedAt) {
			latest = txn
		}
	}
	return latest, true
}
