package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/smarttrack/internal/events"
)

// AppendHandler returns an event handler that mirrors every created
// transaction into the Ledger tab.
func AppendHandler(appender RowAppender, logger *slog.Logger) events.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, msg events.TransactionCreated) error {
		if err := appender.AppendTransaction(ctx, msg.Transaction()); err != nil {
			return fmt.Errorf("failed to mirror transaction %s: %w", msg.ID, err)
		}
		logger.Info("mirrored transaction to sheet", "transaction_id", msg.ID, "user_id", msg.UserID)
		return nil
	}
}
