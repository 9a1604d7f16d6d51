package sheets

import (
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC)
	txns := testutil.NewestFirst(testutil.SampleTransactions())

	report := BuildReport(txns, time.UTC, now)

	assert.Equal(t, "4335", report.Total.String())
	assert.Equal(t, 8, report.Count)
	require.Len(t, report.Categories, 6)
	assert.Equal(t, "Shopping", report.Categories[0].Label)
	assert.Equal(t, 58, report.Categories[0].Percentage)
	assert.Equal(t, "Food", report.Categories[1].Label)
	assert.Equal(t, 3, report.Categories[1].Count)
	assert.Equal(t, "🛍️ Shopping is your top spending category (₹2,500)", report.Insight)

	require.Len(t, report.Transactions, 8)
	assert.Equal(t, "8", report.Transactions[0].ID)
	assert.Equal(t, "Tea Stall", report.Transactions[0].Merchant)
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, time.UTC, time.Now())
	assert.True(t, report.Total.IsZero())
	assert.Empty(t, report.Categories)
	assert.Empty(t, report.Insight)

	values := report.Values()
	for _, row := range values {
		if len(row) > 0 {
			assert.NotEqual(t, "Insight", row[0])
		}
	}
}

func TestTransactionRow_Values(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	txn := testutil.SampleTransactions()[0]
	row := NewTransactionRow(txn, ist).Values()

	assert.Equal(t, []any{"1", "2025-01-15", "3:00 pm", "Cafe Coffee Day", "180.00", "Food", "QR", "yes"}, row)
	assert.Len(t, row, len(LedgerHeader))

	p2p := NewTransactionRow(testutil.SampleTransactions()[2], time.UTC).Values()
	assert.Equal(t, "P2P", p2p[6])
	assert.Equal(t, "no", p2p[7])
}

func TestReport_Values(t *testing.T) {
	now := time.Date(2025, time.January, 20, 10, 0, 0, 0, time.UTC)
	report := BuildReport(testutil.NewestFirst(testutil.SampleTransactions()), time.UTC, now)
	values := report.Values()

	assert.Equal(t, []any{"SmartTrack Report", "20 Jan 2025 10:00"}, values[0])
	assert.Equal(t, []any{"Total Spent", "4335.00"}, values[3])
	assert.Equal(t, []any{"Transactions", 8}, values[4])
	assert.Equal(t, LedgerHeader, values[len(values)-9])
	assert.Equal(t, "8", values[len(values)-8][0])
}
