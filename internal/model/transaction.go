package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode describes how a payment was made.
type PaymentMode string

const (
	// PaymentModeQR is a merchant-initiated scan at a registered merchant.
	PaymentModeQR PaymentMode = "QR"
	// PaymentModeP2P is a person-to-person transfer to an unregistered payee.
	PaymentModeP2P PaymentMode = "P2P"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	return m == PaymentModeQR || m == PaymentModeP2P
}

// PaymentModeFor derives the payment mode from the registered-merchant flag.
func PaymentModeFor(registered bool) PaymentMode {
	if registered {
		return PaymentModeQR
	}
	return PaymentModeP2P
}

// ErrInvalidTransaction is returned when transaction fields fail validation.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Transaction is a categorized payment owned by a single user.
type Transaction struct {
	CreatedAt            time.Time       `json:"created_at"`
	Amount               decimal.Decimal `json:"amount"`
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	MerchantName         string          `json:"merchant_name"`
	Category             Category        `json:"category"`
	PaymentMode          PaymentMode     `json:"payment_type"`
	SourceID             string          `json:"source_id,omitempty"`
	IsRegisteredMerchant bool            `json:"is_registered_merchant"`
}

// NewTransaction carries the caller-supplied fields of an insert. The store
// assigns the ID, and CreatedAt unless OccurredAt is set.
type NewTransaction struct {
	// OccurredAt is when an imported payment was made. Zero means now.
	OccurredAt           time.Time       `json:"occurred_at,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	MerchantName         string          `json:"merchant_name"`
	Category             Category        `json:"category"`
	PaymentMode          PaymentMode     `json:"payment_type"`
	// SourceID identifies the bank record a payment was imported from. A
	// user can hold at most one transaction per source ID.
	SourceID             string          `json:"source_id,omitempty"`
	IsRegisteredMerchant bool            `json:"is_registered_merchant"`
}

// Validate checks the insert fields.
func (n NewTransaction) Validate() error {
	if n.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidTransaction)
	}
	if strings.TrimSpace(n.MerchantName) == "" {
		return fmt.Errorf("%w: missing merchant name", ErrInvalidTransaction)
	}
	if !n.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTransaction, string(n.Category))
	}
	if !n.PaymentMode.Valid() {
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidTransaction, string(n.PaymentMode))
	}
	return nil
}

// NewFrom returns the insert fields of an existing transaction.
func (t Transaction) NewFrom() NewTransaction {
	return NewTransaction{
		OccurredAt:           t.CreatedAt,
		Amount:               t.Amount,
		MerchantName:         t.MerchantName,
		Category:             t.Category,
		PaymentMode:          t.PaymentMode,
		SourceID:             t.SourceID,
		IsRegisteredMerchant: t.IsRegisteredMerchant,
	}
}
