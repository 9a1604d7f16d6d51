package responder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/llm"
	"github.com/Veraticus/smarttrack/internal/model"
)

// Assistant answers with an LLM that sees the user's transactions.
type Assistant struct {
	source TransactionSource
	client llm.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewAssistant creates the LLM strategy. A nil client answers every question
// with the not-configured message.
func NewAssistant(source TransactionSource, client llm.Client, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		source: source,
		client: client,
		now:    time.Now,
		logger: logger.With("component", "assistant"),
	}
}

// Respond loads the user's transactions and asks the model.
func (a *Assistant) Respond(ctx context.Context, userID, text string) (string, error) {
	txns, err := a.source.Transactions(ctx, userID)
	if err != nil {
		return "", common.NewUserError(MsgFetchFailed, fmt.Errorf("%w: %w", ErrFetchTransactions, err))
	}

	if a.client == nil {
		return "", common.NewUserError(MsgNotConfigured, llm.ErrNotConfigured)
	}

	system, err := SystemPrompt(txns, a.now())
	if err != nil {
		return "", fmt.Errorf("build system prompt: %w", err)
	}

	a.logger.DebugContext(ctx, "Calling AI gateway", "user_id", userID, "transactions", len(txns))

	resp, err := a.client.Chat(ctx, llm.Request{System: system, Prompt: text})
	if err != nil {
		return "", common.NewUserError(GatewayMessage(err), err)
	}

	if strings.TrimSpace(resp.Content) == "" {
		return MsgEmptyGeneration, nil
	}
	return resp.Content, nil
}

// GatewayMessage maps an LLM failure to the text shown to the user.
func GatewayMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return MsgNotConfigured
	case errors.Is(err, llm.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, llm.ErrQuotaExhausted):
		return MsgQuotaExhausted
	default:
		return MsgServiceError
	}
}

// SystemPrompt describes the assistant's role and embeds txns as JSON.
func SystemPrompt(txns []model.Transaction, now time.Time) (string, error) {
	txnContext := "User has no transactions yet."
	if len(txns) > 0 {
		data, err := json.MarshalIndent(txns, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal transactions: %w", err)
		}
		txnContext = fmt.Sprintf("User has %d transactions:\n%s", len(txns), data)
	}

	categories := make([]string, 0, len(model.AllCategories()))
	for _, c := range model.AllCategories() {
		categories = append(categories, string(c))
	}
	categoryList := strings.Join(categories, ", ")

	var b strings.Builder
	b.WriteString("You are a helpful financial assistant for SmartTrack, a payment tracking app.\n")
	b.WriteString("You help users understand their spending patterns and answer questions about their transactions.\n\n")
	fmt.Fprintf(&b, "Current date: %s\n\n", now.Format(time.DateOnly))
	b.WriteString(txnContext)
	b.WriteString("\n\nWhen answering:\n")
	b.WriteString("- Format currency in INR (₹)\n")
	b.WriteString("- Be concise and helpful\n")
	b.WriteString("- If asked about specific dates, filter transactions by their created_at field\n")
	fmt.Fprintf(&b, "- If asked about categories, group by category field (%s)\n", categoryList)
	b.WriteString("- Provide insights when relevant\n")
	b.WriteString("- If user has no transactions, encourage them to add some using the simulate payment feature\n\n")
	fmt.Fprintf(&b, "Transaction categories: %s\n", categoryList)
	b.WriteString("Payment types: QR (registered merchants), P2P (person to person)")
	return b.String(), nil
}
