package valuation

import (
	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

// Market position labels derived from the vehicle score.
const (
	PositionStrong       = "strong"
	PositionAboveAverage = "above_average"
	PositionAverage      = "average"
	PositionBelowAverage = "below_average"
	PositionWeak         = "weak"
)

// vehicleScore rates how well the subject should compete in its
// market, clamped to [0,100].
func vehicleScore(subject model.SubjectVehicle, analysis market.Analysis) int {
	score := 50

	switch analysis.Condition {
	case market.ConditionHot:
		score += 15
	case market.ConditionSlow:
		score -= 10
	}

	switch subject.Condition {
	case model.ConditionExcellent:
		score += 20
	case model.ConditionGood:
		score += 10
	case model.ConditionFair:
		score -= 5
	case model.ConditionPoor:
		score -= 15
	}

	reference := analysis.Mileage.Median
	if reference <= 0 {
		reference = analysis.Mileage.Mean
	}
	if reference > 0 && subject.Mileage > 0 {
		ratio := float64(subject.Mileage) / reference
		switch {
		case ratio <= 0.8:
			score += 20
		case ratio <= 1.0:
			score += 10
		case ratio <= 1.2:
			score -= 5
		default:
			score -= 15
		}
	}

	switch analysis.Trend.Direction {
	case market.TrendUp:
		score += 15
	case market.TrendDown:
		score -= 10
	}

	if analysis.DaysOnMarket.Count > 0 {
		if analysis.DaysOnMarket.Avg < 30 {
			score += 15
		} else if analysis.DaysOnMarket.Avg > 60 {
			score -= 10
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// marketPosition maps the vehicle score onto a label. Branches are
// evaluated top-down, so 45-54 reads below_average and 55-59 average.
func marketPosition(score int) string {
	switch {
	case score >= 75:
		return PositionStrong
	case score >= 60:
		return PositionAboveAverage
	case score < 45:
		return PositionWeak
	case score < 55:
		return PositionBelowAverage
	default:
		return PositionAverage
	}
}
