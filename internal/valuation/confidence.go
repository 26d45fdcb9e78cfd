package valuation

import (
	"fmt"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

const (
	confidenceBase = 50
	confidenceCap  = 95
)

// Coefficient-of-variation bands for comparable prices.
const (
	covLow      = 0.10
	covModerate = 0.20
)

// confidence rates the evidence behind a valuation and records each
// contributing or penalizing factor as a human-readable string.
func confidence(b model.Bundle, analysis market.Analysis) model.ConfidenceScore {
	score := confidenceBase
	var factors []string

	compCount := 0
	for _, c := range b.Comparables {
		if c.Price > 0 {
			compCount++
		}
	}
	switch {
	case compCount >= 20:
		score += 20
		factors = append(factors, fmt.Sprintf("strong comparable pool (%d listings)", compCount))
	case compCount >= 10:
		score += 15
		factors = append(factors, fmt.Sprintf("solid comparable pool (%d listings)", compCount))
	case compCount >= 5:
		score += 10
		factors = append(factors, fmt.Sprintf("moderate comparable pool (%d listings)", compCount))
	default:
		factors = append(factors, fmt.Sprintf("limited comparable data (%d listings)", compCount))
	}

	if analysis.Price.Mean > 0 && analysis.Price.Count > 1 {
		cov := analysis.Price.StdDev / analysis.Price.Mean
		switch {
		case cov < covLow:
			score += 15
			factors = append(factors, "low price variance across comparables")
		case cov < covModerate:
			score += 10
			factors = append(factors, "moderate price variance across comparables")
		}
	}

	if len(b.PriceHistory) > 5 {
		score += 10
		factors = append(factors, fmt.Sprintf("price history available (%d records)", len(b.PriceHistory)))
	}
	if b.Supply != nil && b.Supply.DaysSupply > 0 {
		score += 10
		factors = append(factors, "market supply data available")
	}
	if analysis.SalesVelocity > 0 {
		score += 5
		factors = append(factors, "sales velocity data available")
	}

	if score > confidenceCap {
		score = confidenceCap
	}
	return model.ConfidenceScore{Score: score, Factors: factors}
}
