package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_Validate(t *testing.T) {
	valid := NewTransaction{
		Amount:               decimal.NewFromInt(180),
		MerchantName:         "Cafe Coffee Day",
		Category:             CategoryFood,
		PaymentMode:          PaymentModeQR,
		IsRegisteredMerchant: true,
	}

	tests := []struct {
		name    string
		mutate  func(*NewTransaction)
		wantErr bool
	}{
		{name: "valid", mutate: func(*NewTransaction) {}},
		{name: "zero amount is allowed", mutate: func(n *NewTransaction) { n.Amount = decimal.Zero }},
		{name: "negative amount", mutate: func(n *NewTransaction) { n.Amount = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "blank merchant", mutate: func(n *NewTransaction) { n.MerchantName = "  " }, wantErr: true},
		{name: "unknown category", mutate: func(n *NewTransaction) { n.Category = "rent" }, wantErr: true},
		{name: "unknown payment mode", mutate: func(n *NewTransaction) { n.PaymentMode = "CARD" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			err := n.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransaction)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPaymentModeFor(t *testing.T) {
	assert.Equal(t, PaymentModeQR, PaymentModeFor(true))
	assert.Equal(t, PaymentModeP2P, PaymentModeFor(false))
}

func TestPendingCategorization_Categorize(t *testing.T) {
	posted := time.Date(2025, 1, 15, 19, 0, 0, 0, time.UTC)
	pending := PendingCategorization{
		ID:                   "p1",
		OccurredAt:           posted,
		Amount:               decimal.NewFromInt(120),
		MerchantName:         "Local Vendor",
		PaymentMode:          PaymentModeP2P,
		SourceID:             "ofx:acct:F1",
		IsRegisteredMerchant: false,
	}

	got := pending.Categorize(CategoryDaily)
	assert.Equal(t, NewTransaction{
		OccurredAt:           posted,
		Amount:               decimal.NewFromInt(120),
		MerchantName:         "Local Vendor",
		Category:             CategoryDaily,
		PaymentMode:          PaymentModeP2P,
		SourceID:             "ofx:acct:F1",
		IsRegisteredMerchant: false,
	}, got)
	require.NoError(t, got.Validate())
}
