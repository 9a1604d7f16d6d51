package pattern

import (
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultRules returns the built-in merchant rules. Exact names outrank the
// keyword patterns, which outrank the amount-only fallbacks.
func DefaultRules() []Rule {
	return []Rule{
		// Known merchants
		{Name: "Cafe Coffee Day", MerchantPattern: "Cafe Coffee Day", Category: model.CategoryFood, Priority: 100, Confidence: 0.95},
		{Name: "Swiggy", MerchantPattern: "Swiggy", Category: model.CategoryFood, Priority: 100, Confidence: 0.95},
		{Name: "Zomato", MerchantPattern: "Zomato", Category: model.CategoryFood, Priority: 100, Confidence: 0.95},
		{Name: "BigBasket", MerchantPattern: "BigBasket", Category: model.CategoryDaily, Priority: 100, Confidence: 0.9},
		{Name: "DMart", MerchantPattern: "DMart", Category: model.CategoryDaily, Priority: 100, Confidence: 0.9},
		{Name: "Apollo Pharmacy", MerchantPattern: "Apollo Pharmacy", Category: model.CategoryMedical, Priority: 100, Confidence: 0.95},
		{Name: "MedPlus", MerchantPattern: "MedPlus", Category: model.CategoryMedical, Priority: 100, Confidence: 0.95},
		{Name: "Uber", MerchantPattern: "Uber", Category: model.CategoryTransport, Priority: 100, Confidence: 0.95},
		{Name: "Ola", MerchantPattern: "Ola", Category: model.CategoryTransport, Priority: 100, Confidence: 0.95},
		{Name: "Rapido", MerchantPattern: "Rapido", Category: model.CategoryTransport, Priority: 100, Confidence: 0.95},
		{Name: "PVR Cinemas", MerchantPattern: "PVR Cinemas", Category: model.CategoryEntertainment, Priority: 100, Confidence: 0.95},
		{Name: "BookMyShow", MerchantPattern: "BookMyShow", Category: model.CategoryEntertainment, Priority: 100, Confidence: 0.9},
		{Name: "Myntra", MerchantPattern: "Myntra", Category: model.CategoryShopping, Priority: 100, Confidence: 0.95},
		{Name: "Flipkart", MerchantPattern: "Flipkart", Category: model.CategoryShopping, Priority: 100, Confidence: 0.9},
		{Name: "Amazon", MerchantPattern: "Amazon", Category: model.CategoryShopping, Priority: 100, Confidence: 0.85},

		// Keywords
		{Name: "Pharmacy", MerchantPattern: `\b(pharmacy|chemist|medical|clinic|hospital)\b`, IsRegex: true, Category: model.CategoryMedical, Priority: 80, Confidence: 0.85},
		{Name: "Eating out", MerchantPattern: `\b(cafe|restaurant|dhaba|bakery|food|tea|coffee|pizza|biryani)\b`, IsRegex: true, Category: model.CategoryFood, Priority: 80, Confidence: 0.8},
		{Name: "Groceries", MerchantPattern: `\b(grocery|grocer|kirana|supermarket|mart|bazaar|vegetables?|milk)\b`, IsRegex: true, Category: model.CategoryDaily, Priority: 75, Confidence: 0.75},
		{Name: "Rides", MerchantPattern: `\b(cab|taxi|metro|petrol|fuel|parking|auto)\b`, IsRegex: true, Category: model.CategoryTransport, Priority: 75, Confidence: 0.75},
		{Name: "Movies", MerchantPattern: `\b(cinemas?|movies?|theatre|inox)\b`, IsRegex: true, Category: model.CategoryEntertainment, Priority: 75, Confidence: 0.75},

		// Small payments to street vendors are usually daily needs.
		{Name: "Local vendor", MerchantPattern: `\b(vendor|stall|shop)\b`, IsRegex: true, AmountCondition: AmountLE, AmountValue: amount(200), Category: model.CategoryDaily, Priority: 50, Confidence: 0.6},
		{Name: "Large purchase", MerchantPattern: `\b(vendor|stall|shop|store)\b`, IsRegex: true, AmountCondition: AmountGT, AmountValue: amount(2000), Category: model.CategoryShopping, Priority: 40, Confidence: 0.5},
	}
}
