package plaid

import (
	"context"
	"time"
)

// TransactionFetcher defines the contract for fetching bank-feed payments.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]Payment, error)
	GetAccounts(ctx context.Context) ([]string, error)
}
