// Package testutil provides seeded test data generators shared by
// package tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwhited/dealerval/internal/model"
)

// TestDataFactory generates deterministic vehicle market data from a
// seed.
type TestDataFactory struct {
	rand *rand.Rand
	now  time.Time
}

// NewTestDataFactory creates a factory with a seeded random generator.
// A zero seed falls back to the current time.
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
		now:  time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

// Now returns the fixed reference time the factory dates listings
// against. Pass the same value to the engine clock so ages line up.
func (f *TestDataFactory) Now() time.Time {
	return f.now
}

// Subject generates a subject vehicle with plausible spec fields.
func (f *TestDataFactory) Subject() model.SubjectVehicle {
	return model.SubjectVehicle{
		Spec: model.VehicleSpec{
			VIN:   f.VIN(),
			Year:  2020 + f.rand.Intn(6),
			Make:  "Honda",
			Model: "Accord",
			Trim:  "EX-L",
			MSRP:  32000,
		},
		Mileage:   20000 + f.rand.Intn(60000),
		Condition: model.ConditionGood,
	}
}

// VIN generates a syntactically plausible 17-character VIN.
func (f *TestDataFactory) VIN() string {
	const alphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"
	b := make([]byte, 17)
	for i := range b {
		b[i] = alphabet[f.rand.Intn(len(alphabet))]
	}
	return string(b)
}

// Comparable generates one listing clustered around centerPrice.
func (f *TestDataFactory) Comparable(centerPrice float64) model.ComparableListing {
	spread := centerPrice * 0.08
	dom := f.rand.Intn(90) + 1
	dealerTypes := []string{model.DealerFranchise, model.DealerIndependent, model.DealerPrivate}
	return model.ComparableListing{
		Price:         centerPrice + (f.rand.Float64()*2-1)*spread,
		Mileage:       25000 + f.rand.Intn(50000),
		Year:          2020 + f.rand.Intn(6),
		Trim:          "EX-L",
		DealerName:    fmt.Sprintf("Test Motors %d", f.rand.Intn(100)),
		DealerType:    dealerTypes[f.rand.Intn(len(dealerTypes))],
		DistanceMiles: f.rand.Float64() * 150,
		ListingDate:   f.now.AddDate(0, 0, -dom),
		DaysOnMarket:  dom,
		Certified:     f.rand.Intn(5) == 0,
		InventoryType: "used",
	}
}

// Comparables generates n listings clustered around centerPrice.
func (f *TestDataFactory) Comparables(n int, centerPrice float64) []model.ComparableListing {
	out := make([]model.ComparableListing, n)
	for i := range out {
		out[i] = f.Comparable(centerPrice)
	}
	return out
}

// PriceHistory generates n historical entries drifting from startPrice
// by monthlyDrift per 30 days, oldest first.
func (f *TestDataFactory) PriceHistory(n int, startPrice, monthlyDrift float64) []model.PriceHistoryEntry {
	out := make([]model.PriceHistoryEntry, n)
	for i := range out {
		ageDays := (n - i) * 15
		out[i] = model.PriceHistoryEntry{
			Date:  f.now.AddDate(0, 0, -ageDays),
			Price: startPrice + monthlyDrift*float64(i)/2,
		}
	}
	return out
}

// Bundle generates a complete valuation input around centerPrice with
// nComps comparables, supply data, and a flat price history.
func (f *TestDataFactory) Bundle(nComps int, centerPrice float64) model.Bundle {
	return model.Bundle{
		Subject:      f.Subject(),
		Comparables:  f.Comparables(nComps, centerPrice),
		PriceHistory: f.PriceHistory(6, centerPrice, 0),
		Supply: &model.MarketSupplyData{
			DaysSupply:     45,
			InventoryCount: nComps,
			SalesCount:     nComps / 2,
		},
	}
}
