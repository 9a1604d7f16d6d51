package sheets

import (
	"time"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

// LedgerHeader is the first row of the Ledger tab.
var LedgerHeader = []any{"ID", "Date", "Time", "Merchant", "Amount", "Category", "Payment", "Registered"}

// TransactionRow is one line of the transaction list.
type TransactionRow struct {
	CreatedAt  time.Time
	Amount     decimal.Decimal
	ID         string
	Merchant   string
	Category   string
	Payment    string
	Registered bool
}

// CategoryRow is one line of the category breakdown.
type CategoryRow struct {
	Amount     decimal.Decimal
	Label      string
	Count      int
	Percentage int
}

// Report holds everything written to the Report tab.
type Report struct {
	GeneratedAt  time.Time
	Total        decimal.Decimal
	Insight      string
	Categories   []CategoryRow
	Transactions []TransactionRow
	Count        int
}

// NewTransactionRow converts txn, rendering times in loc.
func NewTransactionRow(txn model.Transaction, loc *time.Location) TransactionRow {
	if loc == nil {
		loc = time.UTC
	}
	return TransactionRow{
		CreatedAt:  txn.CreatedAt.In(loc),
		Amount:     txn.Amount,
		ID:         txn.ID,
		Merchant:   txn.MerchantName,
		Category:   txn.Category.Info().Label,
		Payment:    string(txn.PaymentMode),
		Registered: txn.IsRegisteredMerchant,
	}
}

// BuildReport summarizes txns, which are expected newest first, keeping
// every category in the breakdown.
func BuildReport(txns []model.Transaction, loc *time.Location, now time.Time) Report {
	summary := aggregate.Summarize(txns, -1)

	report := Report{
		GeneratedAt:  now,
		Total:        summary.Total,
		Count:        summary.Count,
		Categories:   make([]CategoryRow, 0, len(summary.Categories)),
		Transactions: make([]TransactionRow, 0, len(txns)),
	}

	for _, ct := range summary.Categories {
		report.Categories = append(report.Categories, CategoryRow{
			Label:      ct.Category.Info().Label,
			Amount:     ct.Amount,
			Count:      ct.Count,
			Percentage: ct.Percentage,
		})
	}

	if summary.TopCategory != nil {
		report.Insight = summary.TopCategory.Category.Display() + " is your top spending category (" +
			format.Currency(summary.TopCategory.Amount) + ")"
	}

	for _, txn := range txns {
		report.Transactions = append(report.Transactions, NewTransactionRow(txn, loc))
	}

	return report
}

// Values renders the row as sheet cells in LedgerHeader order.
func (r TransactionRow) Values() []any {
	registered := "no"
	if r.Registered {
		registered = "yes"
	}
	return []any{
		r.ID,
		r.CreatedAt.Format("2006-01-02"),
		format.Time(r.CreatedAt),
		r.Merchant,
		r.Amount.StringFixed(2),
		r.Category,
		r.Payment,
		registered,
	}
}

// Values renders the whole report as sheet rows.
func (r Report) Values() [][]any {
	values := make([][]any, 0, 10+len(r.Categories)+len(r.Transactions))

	values = append(values,
		[]any{"SmartTrack Report", r.GeneratedAt.Format("2 Jan 2006 15:04")},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Spent", r.Total.StringFixed(2)},
		[]any{"Transactions", r.Count},
	)
	if r.Insight != "" {
		values = append(values, []any{"Insight", r.Insight})
	}

	values = append(values,
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Category", "Count", "Amount", "Share"},
	)
	for _, c := range r.Categories {
		values = append(values, []any{c.Label, c.Count, c.Amount.StringFixed(2), c.Percentage})
	}

	values = append(values,
		[]any{},
		[]any{"Transaction Details"},
		LedgerHeader,
	)
	for _, t := range r.Transactions {
		values = append(values, t.Values())
	}

	return values
}
