package valuation

import (
	"testing"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

func TestVehicleScore(t *testing.T) {
	tests := []struct {
		name     string
		subject  model.SubjectVehicle
		analysis market.Analysis
		expected int
	}{
		{
			name:     "neutral everything",
			subject:  model.SubjectVehicle{},
			analysis: market.Analysis{Condition: market.ConditionNormal},
			expected: 50,
		},
		{
			name:    "excellent low-mileage unit in a hot market",
			subject: model.SubjectVehicle{Mileage: 20000, Condition: model.ConditionExcellent},
			analysis: market.Analysis{
				Condition:    market.ConditionHot,
				Mileage:      market.Volatility{Median: 40000, Count: 5},
				Trend:        market.Trend{Direction: market.TrendUp},
				DaysOnMarket: market.DOMStats{Avg: 20, Count: 5},
			},
			// 50 +15 hot +20 excellent +20 low mileage +15 trend up
			// +15 fast DOM = 135, clamped to 100.
			expected: 100,
		},
		{
			name:    "poor high-mileage unit in a slow market",
			subject: model.SubjectVehicle{Mileage: 90000, Condition: model.ConditionPoor},
			analysis: market.Analysis{
				Condition:    market.ConditionSlow,
				Mileage:      market.Volatility{Median: 40000, Count: 5},
				Trend:        market.Trend{Direction: market.TrendDown},
				DaysOnMarket: market.DOMStats{Avg: 80, Count: 5},
			},
			// 50 -10 slow -15 poor -15 mileage -10 trend -10 DOM = -10,
			// clamped to 0.
			expected: 0,
		},
		{
			name:    "good condition at market mileage",
			subject: model.SubjectVehicle{Mileage: 40000, Condition: model.ConditionGood},
			analysis: market.Analysis{
				Condition: market.ConditionNormal,
				Mileage:   market.Volatility{Median: 40000, Count: 5},
			},
			// 50 +10 good +10 ratio 1.0 = 70.
			expected: 70,
		},
		{
			name:    "slightly above market mileage",
			subject: model.SubjectVehicle{Mileage: 44000, Condition: model.ConditionGood},
			analysis: market.Analysis{
				Condition: market.ConditionNormal,
				Mileage:   market.Volatility{Median: 40000, Count: 5},
			},
			// 50 +10 good -5 ratio 1.1 = 55.
			expected: 55,
		},
	}
	for _, test := range tests {
		got := vehicleScore(test.subject, test.analysis)
		if got != test.expected {
			t.Errorf("%s: score = %d, want %d", test.name, got, test.expected)
		}
	}
}

func TestMarketPosition(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{90, PositionStrong},
		{75, PositionStrong},
		{74, PositionAboveAverage},
		{60, PositionAboveAverage},
		{59, PositionAverage}, // 55-59 reads average
		{55, PositionAverage},
		{54, PositionBelowAverage}, // 45-54 reads below average
		{45, PositionBelowAverage},
		{44, PositionWeak},
		{0, PositionWeak},
	}
	for _, test := range tests {
		if got := marketPosition(test.score); got != test.expected {
			t.Errorf("score %d: position = %s, want %s", test.score, got, test.expected)
		}
	}
}

func TestConfidence(t *testing.T) {
	comps := func(n int) []model.ComparableListing {
		out := make([]model.ComparableListing, n)
		for i := range out {
			out[i] = model.ComparableListing{Price: 20000}
		}
		return out
	}

	// Full evidence caps at 95.
	full := model.Bundle{
		Comparables: comps(25),
		PriceHistory: []model.PriceHistoryEntry{
			{Price: 1}, {Price: 2}, {Price: 3}, {Price: 4}, {Price: 5}, {Price: 6},
		},
		Supply: &model.MarketSupplyData{DaysSupply: 40, SalesCount: 8},
	}
	analysis := market.Analyze(full.Comparables, full.Supply, nil, testNow)
	score := confidence(full, analysis)
	if score.Score != 95 {
		t.Errorf("full evidence score = %d, want capped 95", score.Score)
	}
	if len(score.Factors) == 0 {
		t.Error("expected contributing factors to be recorded")
	}

	// Thin evidence records a warning factor instead of a bonus.
	thin := model.Bundle{Comparables: comps(2)}
	score = confidence(thin, market.Analyze(thin.Comparables, nil, nil, testNow))
	if score.Score != 50+15 { // identical prices: cov 0 earns the low-variance bonus
		t.Errorf("thin evidence score = %d, want 65", score.Score)
	}
	found := false
	for _, f := range score.Factors {
		if f == "limited comparable data (2 listings)" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected limited-data warning in factors, got %v", score.Factors)
	}

	// Confidence never exceeds 95 or drops below the base.
	if s := confidence(model.Bundle{}, market.Analysis{}); s.Score < 0 || s.Score > 95 {
		t.Errorf("empty bundle score %d outside [0,95]", s.Score)
	}
}
