// Package responder answers free-text questions about a user's spending.
//
// Three strategies share the Responder interface: Rules matches keywords
// against the transaction list, Assistant asks an LLM with the list in its
// system prompt, and Remote forwards the question to a running server.
package responder

import (
	"context"
	"errors"

	"github.com/Veraticus/smarttrack/internal/model"
)

// Responder answers a user's question.
type Responder interface {
	Respond(ctx context.Context, userID, text string) (string, error)
}

// TransactionSource lists a user's transactions, newest first.
type TransactionSource interface {
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

// ErrFetchTransactions is returned when the transaction list cannot be loaded.
var ErrFetchTransactions = errors.New("failed to fetch transactions")

// Messages shown for gateway failures.
const (
	MsgFetchFailed     = "Failed to fetch transactions"
	MsgNotConfigured   = "AI service not configured"
	MsgRateLimited     = "Rate limit exceeded. Please try again later."
	MsgQuotaExhausted  = "AI credits exhausted. Please add funds."
	MsgServiceError    = "AI service error"
	MsgEmptyGeneration = "I couldn't generate a response."
)
