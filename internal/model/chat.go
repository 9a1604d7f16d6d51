package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks messages typed by the user.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the assistant.
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a session's conversation log. Messages are not
// persisted.
type ChatMessage struct {
	Timestamp      time.Time `json:"timestamp"`
	ID             string    `json:"id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	PendingID      string    `json:"pending_id,omitempty"`
	CategoryPrompt bool      `json:"category_prompt,omitempty"`
}

// NewChatMessage creates a message with a fresh ID.
func NewChatMessage(role Role, content string, at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

// PendingCategorization is an uncategorized payment waiting for the user to
// pick a category. Imported payments carry their bank date and source ID.
type PendingCategorization struct {
	OccurredAt           time.Time       `json:"occurred_at,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	ID                   string          `json:"id"`
	MerchantName         string          `json:"merchant_name"`
	PaymentMode          PaymentMode     `json:"payment_type"`
	SourceID             string          `json:"source_id,omitempty"`
	IsRegisteredMerchant bool            `json:"is_registered_merchant"`
}

// Categorize converts the pending payment into insert fields.
func (p PendingCategorization) Categorize(c Category) NewTransaction {
	return NewTransaction{
		OccurredAt:           p.OccurredAt,
		Amount:               p.Amount,
		MerchantName:         p.MerchantName,
		Category:             c,
		PaymentMode:          p.PaymentMode,
		SourceID:             p.SourceID,
		IsRegisteredMerchant: p.IsRegisteredMerchant,
	}
}
