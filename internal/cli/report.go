package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
)

// RenderMessage renders **bold** spans of assistant text.
func RenderMessage(text string) string {
	parts := strings.Split(text, "**")
	if len(parts)%2 == 0 {
		// Unbalanced markers are printed as typed.
		return text
	}
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString(BoldStyle.Render(part))
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

// RenderSummary renders the spending overview.
func RenderSummary(s aggregate.Summary) string {
	if s.Count == 0 {
		return RenderBox(ChartIcon+" Spending summary", SubtleStyle.Render("No transactions yet."))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total spent: %s across %d transactions\n",
		AmountStyle.Render(format.Currency(s.Total)), s.Count))
	if s.TopCategory != nil {
		b.WriteString(fmt.Sprintf("Top category: %s (%d%%)\n", FormatCategory(s.TopCategory.Category), s.TopCategory.Percentage))
	}
	b.WriteString("\n")

	width := 0
	for _, ct := range s.Categories {
		if w := len([]rune(ct.Category.Display())); w > width {
			width = w
		}
	}
	for i, ct := range s.Categories {
		label := ct.Category.Display()
		pad := strings.Repeat(" ", width-len([]rune(label)))
		line := fmt.Sprintf("%s%s  %10s  %3d%%  %s",
			CategoryStyle(ct.Category).Render(label), pad,
			format.Currency(ct.Amount), ct.Percentage, bar(ct.Percentage))
		if i < len(s.Categories)-1 {
			line += "\n"
		}
		b.WriteString(line)
	}

	return RenderBox(ChartIcon+" Spending summary", b.String())
}

func bar(percentage int) string {
	const width = 20
	filled := percentage * width / 100
	if percentage > 0 && filled == 0 {
		filled = 1
	}
	return ProgressStyle.Render(strings.Repeat("█", filled)) + SubtleStyle.Render(strings.Repeat("░", width-filled))
}

// RenderTransaction renders one ledger line in loc.
func RenderTransaction(txn model.Transaction, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("  %s  %-24s %12s  %s  %s",
		SubtleStyle.Render(fmt.Sprintf("%8s", format.Time(txn.CreatedAt.In(loc)))),
		txn.MerchantName,
		AmountStyle.Render(format.Currency(txn.Amount)),
		FormatCategory(txn.Category),
		SubtleStyle.Render(string(txn.PaymentMode)))
}

// RenderHistory renders transactions grouped by day, newest day first.
func RenderHistory(groups []aggregate.DateGroup, loc *time.Location) string {
	if len(groups) == 0 {
		return SubtleStyle.Render("No transactions yet.")
	}

	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(TitleStyle.UnsetMargins().Render(g.Label))
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  %s", format.Currency(aggregate.TotalOf(g.Transactions)))))
		b.WriteString("\n")
		for _, txn := range g.Transactions {
			b.WriteString(RenderTransaction(txn, loc))
			b.WriteString("\n")
		}
	}
	return b.String()
}
