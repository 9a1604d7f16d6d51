package ledger

import (
	"context"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

func demo(day, hour, minute int, amount int64, merchant string, category model.Category, registered bool) model.NewTransaction {
	return model.NewTransaction{
		OccurredAt:           time.Date(2025, time.January, day, hour, minute, 0, 0, time.UTC),
		Amount:               decimal.NewFromInt(amount),
		MerchantName:         merchant,
		Category:             category,
		PaymentMode:          model.PaymentModeFor(registered),
		IsRegisteredMerchant: registered,
	}
}

// DemoTransactions returns the sample ledger used by `smarttrack seed --demo`,
// oldest first. It spans 15 to 19 January 2025 and totals ₹4,335.
func DemoTransactions() []model.NewTransaction {
	return []model.NewTransaction{
		demo(15, 9, 30, 180, "Cafe Coffee Day", model.CategoryFood, true),
		demo(15, 14, 15, 450, "Apollo Pharmacy", model.CategoryMedical, true),
		demo(15, 19, 0, 120, "Local Vendor", model.CategoryDaily, false),
		demo(16, 13, 0, 350, "Swiggy", model.CategoryFood, true),
		demo(17, 11, 30, 2500, "Big Bazaar", model.CategoryShopping, true),
		demo(17, 18, 45, 150, "Uber", model.CategoryTransport, true),
		demo(18, 20, 0, 500, "PVR Cinemas", model.CategoryEntertainment, true),
		demo(19, 8, 0, 85, "Tea Stall", model.CategoryFood, false),
	}
}

// Seed records txns for the user in order and returns how many were saved.
func (l *Ledger) Seed(ctx context.Context, userID string, txns []model.NewTransaction) (int, error) {
	for i, txn := range txns {
		if _, err := l.Record(ctx, userID, txn); err != nil {
			return i, err
		}
	}
	return len(txns), nil
}
