// Package events publishes and consumes ledger change notifications over AMQP.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

// TypeTransactionCreated is the AMQP message type of TransactionCreated.
const TypeTransactionCreated = "transaction.created"

// TransactionCreated announces a newly recorded transaction.
type TransactionCreated struct {
	CreatedAt            time.Time         `json:"created_at"`
	PublishedAt          time.Time         `json:"published_at"`
	Amount               decimal.Decimal   `json:"amount"`
	ID                   string            `json:"id"`
	UserID               string            `json:"user_id"`
	MerchantName         string            `json:"merchant_name"`
	Category             model.Category    `json:"category"`
	PaymentMode          model.PaymentMode `json:"payment_type"`
	IsRegisteredMerchant bool              `json:"is_registered_merchant"`
}

// NewTransactionCreated builds the message for txn.
func NewTransactionCreated(txn model.Transaction, at time.Time) TransactionCreated {
	return TransactionCreated{
		ID:                   txn.ID,
		UserID:               txn.UserID,
		Amount:               txn.Amount,
		MerchantName:         txn.MerchantName,
		Category:             txn.Category,
		PaymentMode:          txn.PaymentMode,
		IsRegisteredMerchant: txn.IsRegisteredMerchant,
		CreatedAt:            txn.CreatedAt,
		PublishedAt:          at,
	}
}

// Transaction converts the message back into the ledger record.
func (m TransactionCreated) Transaction() model.Transaction {
	return model.Transaction{
		ID:                   m.ID,
		UserID:               m.UserID,
		Amount:               m.Amount,
		MerchantName:         m.MerchantName,
		Category:             m.Category,
		PaymentMode:          m.PaymentMode,
		IsRegisteredMerchant: m.IsRegisteredMerchant,
		CreatedAt:            m.CreatedAt,
	}
}

// ToJSON encodes the message body.
func (m TransactionCreated) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCreatedFromJSON decodes and validates a message body.
func TransactionCreatedFromJSON(data []byte) (TransactionCreated, error) {
	var msg TransactionCreated
	if err := json.Unmarshal(data, &msg); err != nil {
		return TransactionCreated{}, fmt.Errorf("decode %s: %w", TypeTransactionCreated, err)
	}
	if msg.ID == "" || msg.UserID == "" {
		return TransactionCreated{}, fmt.Errorf("decode %s: missing id or user_id", TypeTransactionCreated)
	}
	if !msg.Category.Valid() {
		return TransactionCreated{}, fmt.Errorf("decode %s: unknown category %q", TypeTransactionCreated, string(msg.Category))
	}
	return msg, nil
}
