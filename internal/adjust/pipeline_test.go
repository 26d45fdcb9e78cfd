package adjust

import (
	"math"
	"testing"
	"time"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func baseContext() Context {
	return Context{
		BasePrice: 20000,
		Subject: model.SubjectVehicle{
			Spec:      model.VehicleSpec{Year: 2024, Make: "Honda", Model: "Civic"},
			Mileage:   30000,
			Condition: model.ConditionGood,
		},
		Now: testNow,
	}
}

func TestMileageStep_AboveMarket(t *testing.T) {
	// 50,000 miles above the market median at age 2 (rate 0.15)
	// must cost the subject $7,500.
	ctx := baseContext()
	ctx.Subject.Mileage = 90000
	ctx.Analysis.Mileage = market.Volatility{Median: 40000, Count: 5}

	_, amount, _ := mileageStep(ctx)
	if math.Abs(amount-(-7500)) > 1e-9 {
		t.Errorf("mileage adjustment = %.2f, want -7500", amount)
	}
}

func TestMileageStep_FallsBackToMean(t *testing.T) {
	ctx := baseContext()
	ctx.Subject.Mileage = 30000
	ctx.Analysis.Mileage = market.Volatility{Mean: 40000, Count: 5}

	_, amount, _ := mileageStep(ctx)
	// 10,000 below market at 0.15/mile.
	if math.Abs(amount-1500) > 1e-9 {
		t.Errorf("mileage adjustment = %.2f, want +1500", amount)
	}
}

func TestMileageStep_NoReference(t *testing.T) {
	ctx := baseContext()
	_, amount, _ := mileageStep(ctx)
	if amount != 0 {
		t.Errorf("no market mileage should be neutral, got %.2f", amount)
	}
}

func TestPerMileRate(t *testing.T) {
	tests := []struct {
		age      int
		expected float64
	}{
		{0, 0.15}, {2, 0.15}, {3, 0.12}, {5, 0.12}, {8, 0.08}, {15, 0.05},
	}
	for _, test := range tests {
		if got := perMileRate(test.age); got != test.expected {
			t.Errorf("age %d: rate = %.2f, want %.2f", test.age, got, test.expected)
		}
	}
}

func TestMarketDaysSupplyStep(t *testing.T) {
	tests := []struct {
		mds      float64
		expected float64 // fraction of base
	}{
		{20, 0.07},
		{45, 0},
		{75, -0.04},
		{120, -0.09},
	}
	for _, test := range tests {
		ctx := baseContext()
		ctx.Supply = &model.MarketSupplyData{DaysSupply: test.mds}
		_, amount, _ := marketDaysSupplyStep(ctx)
		want := 20000 * test.expected
		if math.Abs(amount-want) > 1e-9 {
			t.Errorf("mds %.0f: adjustment = %.2f, want %.2f", test.mds, amount, want)
		}
	}

	ctx := baseContext()
	if _, amount, _ := marketDaysSupplyStep(ctx); amount != 0 {
		t.Errorf("missing supply data should be neutral, got %.2f", amount)
	}
}

func TestDaysOnMarketStep(t *testing.T) {
	ctx := baseContext()
	ctx.Analysis.DaysOnMarket = market.DOMStats{Avg: 15, Count: 4}
	if _, amount, _ := daysOnMarketStep(ctx); math.Abs(amount-1000) > 1e-9 {
		t.Errorf("fast market: adjustment = %.2f, want +1000", amount)
	}

	ctx.Analysis.DaysOnMarket = market.DOMStats{Avg: 75, Count: 4}
	if _, amount, _ := daysOnMarketStep(ctx); math.Abs(amount-(-800)) > 1e-9 {
		t.Errorf("slow market: adjustment = %.2f, want -800", amount)
	}

	// No DOM sample must not read as a hot market.
	ctx.Analysis.DaysOnMarket = market.DOMStats{}
	if _, amount, _ := daysOnMarketStep(ctx); amount != 0 {
		t.Errorf("missing DOM data should be neutral, got %.2f", amount)
	}
}

func TestTrendStep(t *testing.T) {
	ctx := baseContext()
	ctx.Analysis.Trend = market.Trend{Direction: market.TrendUp, ChangePct: 8}
	_, amount, _ := trendStep(ctx)
	// Half of 8% on 20000.
	if math.Abs(amount-800) > 1e-9 {
		t.Errorf("trend adjustment = %.2f, want +800", amount)
	}

	ctx.Analysis.Trend = market.Trend{Direction: market.TrendStable, ChangePct: 2}
	if _, amount, _ := trendStep(ctx); amount != 0 {
		t.Errorf("trend inside noise band should be neutral, got %.2f", amount)
	}
}

func TestVolatilityStep(t *testing.T) {
	ctx := baseContext()
	ctx.Analysis.Price = market.Volatility{StdDev: 4000, Count: 10} // cov 0.20
	_, amount, _ := volatilityStep(ctx)
	if math.Abs(amount-(-400)) > 1e-9 {
		t.Errorf("volatile market: adjustment = %.2f, want -400", amount)
	}

	ctx.Analysis.Price = market.Volatility{StdDev: 1000, Count: 10} // cov 0.05
	if _, amount, _ := volatilityStep(ctx); amount != 0 {
		t.Errorf("calm market should be neutral, got %.2f", amount)
	}
}

func TestCertifiedStep(t *testing.T) {
	ctx := baseContext()
	ctx.Subject.Condition = model.ConditionExcellent
	ctx.Analysis.Inventory = market.InventoryMix{Certified: 3, Used: 7}
	_, amount, _ := certifiedStep(ctx)
	if math.Abs(amount-2000) > 1e-9 {
		t.Errorf("certified premium = %.2f, want +2000", amount)
	}

	// Good condition does not qualify even in a CPO-heavy market.
	ctx.Subject.Condition = model.ConditionGood
	if _, amount, _ := certifiedStep(ctx); amount != 0 {
		t.Errorf("good condition should not earn premium, got %.2f", amount)
	}

	// Thin certified share does not qualify.
	ctx.Subject.Condition = model.ConditionExcellent
	ctx.Analysis.Inventory = market.InventoryMix{Certified: 1, Used: 9}
	if _, amount, _ := certifiedStep(ctx); amount != 0 {
		t.Errorf("10%% certified share should not earn premium, got %.2f", amount)
	}
}

func TestNegotiationStep(t *testing.T) {
	tests := []struct {
		dom      market.DOMStats
		expected float64
	}{
		{market.DOMStats{Avg: 15, Count: 3}, -0.03},
		{market.DOMStats{Avg: 40, Count: 3}, -0.05},
		{market.DOMStats{Avg: 75, Count: 3}, -0.07},
		{market.DOMStats{}, -0.05}, // unknown market uses the middle band
	}
	for _, test := range tests {
		ctx := baseContext()
		ctx.Analysis.DaysOnMarket = test.dom
		_, amount, _ := negotiationStep(ctx)
		want := 20000 * test.expected
		if math.Abs(amount-want) > 1e-9 {
			t.Errorf("dom %+v: discount = %.2f, want %.2f", test.dom, amount, want)
		}
	}
}

func TestApply_ConditionMultiplierLast(t *testing.T) {
	// Base 20000, no market data: the only non-zero additive step is
	// the -5% negotiation discount; excellent condition then scales
	// the total by 1.15.
	ctx := baseContext()
	ctx.Subject.Condition = model.ConditionExcellent

	out := Apply(ctx)
	want := math.Round((20000 - 1000) * 1.15)
	if out.RetailPrice != want {
		t.Errorf("retail = %.2f, want %.2f", out.RetailPrice, want)
	}
	if out.ConditionMultiplier != 1.15 {
		t.Errorf("multiplier = %.2f, want 1.15", out.ConditionMultiplier)
	}
	// Ledger order is fixed; condition is always last.
	last := out.Entries[len(out.Entries)-1]
	if last.Name != "condition" {
		t.Errorf("last ledger entry = %s, want condition", last.Name)
	}
	if len(out.Entries) != 8 {
		t.Errorf("ledger has %d entries, want 8", len(out.Entries))
	}
}

func TestApply_PoorConditionNeverNegative(t *testing.T) {
	ctx := baseContext()
	ctx.BasePrice = 500
	ctx.Subject.Condition = model.ConditionPoor
	ctx.Supply = &model.MarketSupplyData{DaysSupply: 150}
	ctx.Analysis.DaysOnMarket = market.DOMStats{Avg: 90, Count: 3}

	out := Apply(ctx)
	if out.RetailPrice < 0 {
		t.Errorf("retail price went negative: %.2f", out.RetailPrice)
	}
}
