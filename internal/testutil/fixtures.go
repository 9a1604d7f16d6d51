package testutil

import (
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

// SampleUserID owns every sample transaction.
const SampleUserID = "user-sample"

// SampleTransactions returns the demo ledger: eight payments between
// 15 and 19 January 2025 (UTC), oldest first.
func SampleTransactions() []model.Transaction {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2025, time.January, day, hour, minute, 0, 0, time.UTC)
	}

	return []model.Transaction{
		Txn("1", 180, "Cafe Coffee Day", model.CategoryFood, true, at(15, 9, 30)),
		Txn("2", 450, "Apollo Pharmacy", model.CategoryMedical, true, at(15, 14, 15)),
		Txn("3", 120, "Local Vendor", model.CategoryDaily, false, at(15, 19, 0)),
		Txn("4", 350, "Swiggy", model.CategoryFood, true, at(16, 13, 0)),
		Txn("5", 2500, "Big Bazaar", model.CategoryShopping, true, at(17, 11, 30)),
		Txn("6", 150, "Uber", model.CategoryTransport, true, at(17, 18, 45)),
		Txn("7", 500, "PVR Cinemas", model.CategoryEntertainment, true, at(18, 20, 0)),
		Txn("8", 85, "Tea Stall", model.CategoryFood, false, at(19, 8, 0)),
	}
}

// NewestFirst returns a reversed copy of txns, matching store list order for
// inputs sorted oldest first.
func NewestFirst(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		out[len(txns)-1-i] = txn
	}
	return out
}

// Txn builds a transaction owned by SampleUserID.
func Txn(id string, amount int64, merchant string, category model.Category, registered bool, at time.Time) model.Transaction {
	return model.Transaction{
		ID:                   id,
		UserID:               SampleUserID,
		Amount:               decimal.NewFromInt(amount),
		MerchantName:         merchant,
		Category:             category,
		PaymentMode:          model.PaymentModeFor(registered),
		IsRegisteredMerchant: registered,
		CreatedAt:            at,
	}
}
