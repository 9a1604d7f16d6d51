package flow

import (
	"math/rand"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Merchants is the catalog simulated payments are drawn from.
var Merchants = []string{
	"Cafe Coffee Day", "Swiggy", "Zomato", "BigBasket", "DMart",
	"Apollo Pharmacy", "MedPlus", "Uber", "Ola", "Rapido",
	"PVR Cinemas", "BookMyShow", "Myntra", "Flipkart", "Amazon",
	"Local Vendor", "Street Food", "Grocery Store", "Medical Store",
}

// RandomSource supplies randomness to the simulator. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// Simulator synthesizes incoming payments for demos.
type Simulator struct {
	rand RandomSource
}

// NewSimulator creates a simulator. A nil source seeds one from seed.
func NewSimulator(source RandomSource, seed int64) *Simulator {
	if source == nil {
		source = rand.New(rand.NewSource(seed)) //nolint:gosec // demo data
	}
	return &Simulator{rand: source}
}

// Next returns a payment of 50 to 549 rupees at a random merchant. Roughly
// seven in ten come from registered merchants and are paid by QR.
func (s *Simulator) Next() model.PendingCategorization {
	amount := s.rand.Intn(500) + 50
	registered := s.rand.Float64() > 0.3
	merchant := Merchants[s.rand.Intn(len(Merchants))]

	return model.PendingCategorization{
		ID:                   uuid.NewString(),
		Amount:               decimal.NewFromInt(int64(amount)),
		MerchantName:         merchant,
		PaymentMode:          model.PaymentModeFor(registered),
		IsRegisteredMerchant: registered,
	}
}
