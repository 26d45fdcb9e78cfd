package baseprice

import (
	"math"
	"testing"
	"time"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func bundle(comps []model.ComparableListing) model.Bundle {
	return model.Bundle{
		Subject: model.SubjectVehicle{
			Spec:      model.VehicleSpec{Year: 2023, Make: "Toyota", Model: "Camry", MSRP: 30000},
			Mileage:   35000,
			Condition: model.ConditionGood,
		},
		Comparables: comps,
	}
}

func analyze(b model.Bundle) market.Analysis {
	return market.Analyze(b.Comparables, b.Supply, b.PriceHistory, testNow)
}

func TestResolve_SimilarityFirst(t *testing.T) {
	comps := []model.ComparableListing{
		{Price: 21000, Mileage: 34000},
		{Price: 22000, Mileage: 36000},
		{Price: 21500, Mileage: 35000},
	}
	b := bundle(comps)
	res := Resolve(b, analyze(b), testNow)
	if res.Method != MethodSimilarityWeighted {
		t.Fatalf("method = %s, want similarity_weighted", res.Method)
	}
	if res.Price < 21000 || res.Price > 22000 {
		t.Errorf("price %.2f outside comp range", res.Price)
	}
	if res.CompsUsed != 3 {
		t.Errorf("comps used = %d, want 3", res.CompsUsed)
	}
}

func TestResolve_MedianWhenTooFewComps(t *testing.T) {
	// Two priced comps: not enough for similarity weighting, but the
	// market median still carries.
	comps := []model.ComparableListing{
		{Price: 20000},
		{Price: 24000},
	}
	b := bundle(comps)
	res := Resolve(b, analyze(b), testNow)
	if res.Method != MethodMedian {
		t.Fatalf("method = %s, want median", res.Method)
	}
	if res.Price != 22000 {
		t.Errorf("price = %.2f, want 22000", res.Price)
	}
}

func TestResolve_MarketStatsFallback(t *testing.T) {
	b := bundle(nil)
	b.MarketStats = &model.MarketStats{AveragePrice: 19500}
	res := Resolve(b, analyze(b), testNow)
	if res.Method != MethodMarketAverage {
		t.Fatalf("method = %s, want market_average", res.Method)
	}
	if res.Price != 19500 {
		t.Errorf("price = %.2f, want 19500", res.Price)
	}
}

func TestResolve_DepreciationCurve(t *testing.T) {
	// Zero comparables, MSRP 30000, age 3 -> 30000 * 0.62 = 18600.
	b := bundle(nil)
	res := Resolve(b, analyze(b), testNow)
	if res.Method != MethodDepreciation {
		t.Fatalf("method = %s, want msrp_depreciation_curve", res.Method)
	}
	if math.Abs(res.Price-18600) > 1e-9 {
		t.Errorf("price = %.2f, want 18600", res.Price)
	}
}

func TestResolve_FallbackConstant(t *testing.T) {
	b := bundle(nil)
	b.Subject.Spec.MSRP = 0
	res := Resolve(b, analyze(b), testNow)
	if res.Method != MethodFallback {
		t.Fatalf("method = %s, want fallback_constant", res.Method)
	}
	if res.Price != fallbackPrice {
		t.Errorf("price = %.2f, want %.2f", res.Price, fallbackPrice)
	}
}

func TestCrossValidate(t *testing.T) {
	// Within tolerance: untouched.
	res := crossValidate(Resolution{Price: 20000, Method: MethodMedian}, 21000)
	if res.Method != MethodMedian || res.Price != 20000 {
		t.Errorf("within tolerance: got %.2f / %s, want untouched", res.Price, res.Method)
	}

	// 30% apart: blend 60/40 and relabel.
	res = crossValidate(Resolution{Price: 20000, Method: MethodMedian}, 26000)
	want := 20000*0.6 + 26000*0.4
	if res.Method != MethodBlended {
		t.Errorf("method = %s, want blended", res.Method)
	}
	if math.Abs(res.Price-want) > 1e-9 {
		t.Errorf("price = %.2f, want %.2f", res.Price, want)
	}
	if res.ExternalPrice != 26000 {
		t.Errorf("external price = %.2f, want 26000", res.ExternalPrice)
	}

	// No external price: untouched.
	res = crossValidate(Resolution{Price: 20000, Method: MethodMedian}, 0)
	if res.Method != MethodMedian {
		t.Errorf("no external price should not blend")
	}
}

func TestTrimmedMedian(t *testing.T) {
	// 10 prices: trim one from each end, median of remaining 8.
	var comps []model.ComparableListing
	for _, p := range []float64{100, 10000, 11000, 12000, 13000, 14000, 15000, 16000, 17000, 90000} {
		comps = append(comps, model.ComparableListing{Price: p})
	}
	price, n := trimmedMedian(comps)
	if n != 8 {
		t.Fatalf("kept %d, want 8", n)
	}
	if price != 13500 {
		t.Errorf("trimmed median = %.2f, want 13500", price)
	}

	if price, n := trimmedMedian(nil); price != 0 || n != 0 {
		t.Errorf("empty input should return zero")
	}
}

func TestDepreciationMultiplier_Steps(t *testing.T) {
	tests := []struct {
		age      int
		expected float64
	}{
		{0, 1.0}, {1, 0.80}, {2, 0.70}, {3, 0.62}, {4, 0.56}, {5, 0.51},
		{6, 0.47}, {10, 0.31}, {30, 0.15}, // floor
	}
	for _, test := range tests {
		got := DepreciationMultiplier(test.age)
		if math.Abs(got-test.expected) > 1e-9 {
			t.Errorf("age %d: multiplier = %.4f, want %.4f", test.age, got, test.expected)
		}
	}
}

func TestDepreciationMultiplier_NonIncreasing(t *testing.T) {
	prev := DepreciationMultiplier(0)
	for age := 1; age <= 40; age++ {
		cur := DepreciationMultiplier(age)
		if cur > prev {
			t.Fatalf("multiplier increased at age %d: %.4f > %.4f", age, cur, prev)
		}
		prev = cur
	}
}
