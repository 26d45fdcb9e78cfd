// Package adjust applies the layered correction pipeline that turns a
// resolved base price into a retail price. Each step is a pure
// function of the pricing context; together they produce an ordered,
// itemized ledger.
package adjust

import (
	"fmt"
	"math"
	"time"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

// Context carries everything the pipeline reads. It is never mutated.
type Context struct {
	BasePrice float64
	Subject   model.SubjectVehicle
	Analysis  market.Analysis
	Supply    *model.MarketSupplyData
	Now       time.Time
}

// Outcome is the pipeline result: the rounded retail price plus the
// ledger and the headline figures the breakdown reports.
type Outcome struct {
	RetailPrice         float64
	Entries             []model.AdjustmentEntry
	PerMileRate         float64
	MileageAdj          float64
	MDSAdj              float64
	DOMAdj              float64
	TrendAdj            float64
	VolatilityAdj       float64
	CertifiedPremium    float64
	NegotiationDiscount float64
	ConditionMultiplier float64
}

// step computes one additive correction against the base price.
type step func(ctx Context) (name string, amount float64, rationale string)

// conditionMultipliers scale the adjusted price last, multiplicatively.
var conditionMultipliers = map[model.Condition]float64{
	model.ConditionExcellent: 1.15,
	model.ConditionGood:      1.00,
	model.ConditionFair:      0.85,
	model.ConditionPoor:      0.70,
}

// Apply runs every step in order, sums the additive corrections, and
// applies the condition multiplier to the total.
func Apply(ctx Context) Outcome {
	out := Outcome{ConditionMultiplier: 1.0}

	steps := []step{mileageStep, marketDaysSupplyStep, daysOnMarketStep, trendStep, volatilityStep, certifiedStep, negotiationStep}

	total := ctx.BasePrice
	for _, s := range steps {
		name, amount, rationale := s(ctx)
		total += amount
		out.Entries = append(out.Entries, model.AdjustmentEntry{Name: name, Amount: amount, Rationale: rationale})
		switch name {
		case "mileage":
			out.MileageAdj = amount
		case "market_days_supply":
			out.MDSAdj = amount
		case "days_on_market":
			out.DOMAdj = amount
		case "price_trend":
			out.TrendAdj = amount
		case "volatility":
			out.VolatilityAdj = amount
		case "certified_premium":
			out.CertifiedPremium = amount
		case "negotiation":
			out.NegotiationDiscount = amount
		}
	}

	if m, ok := conditionMultipliers[ctx.Subject.Condition]; ok {
		out.ConditionMultiplier = m
	}
	out.Entries = append(out.Entries, model.AdjustmentEntry{
		Name:      "condition",
		Amount:    total*out.ConditionMultiplier - total,
		Rationale: fmt.Sprintf("condition %s multiplier %.2f", ctx.Subject.Condition, out.ConditionMultiplier),
	})

	out.PerMileRate = perMileRate(vehicleAge(ctx))
	out.RetailPrice = math.Round(total * out.ConditionMultiplier)
	if out.RetailPrice < 0 {
		out.RetailPrice = 0
	}
	return out
}

func vehicleAge(ctx Context) int {
	if ctx.Subject.Spec.Year <= 0 {
		return 0
	}
	age := ctx.Now.Year() - ctx.Subject.Spec.Year
	if age < 0 {
		age = 0
	}
	return age
}

// perMileRate: newer vehicles lose more value per mile of deviation
// from the market norm.
func perMileRate(age int) float64 {
	switch {
	case age <= 2:
		return 0.15
	case age <= 5:
		return 0.12
	case age <= 10:
		return 0.08
	default:
		return 0.05
	}
}

// mileageStep credits below-market mileage and debits above-market
// mileage against the market median (falling back to the mean).
func mileageStep(ctx Context) (string, float64, string) {
	reference := ctx.Analysis.Mileage.Median
	if reference <= 0 {
		reference = ctx.Analysis.Mileage.Mean
	}
	if reference <= 0 || ctx.Subject.Mileage <= 0 {
		return "mileage", 0, "no market mileage reference"
	}
	rate := perMileRate(vehicleAge(ctx))
	delta := reference - float64(ctx.Subject.Mileage)
	amount := delta * rate
	return "mileage", amount,
		fmt.Sprintf("%.0f miles vs market reference at $%.2f/mile", delta, rate)
}

func marketDaysSupplyStep(ctx Context) (string, float64, string) {
	if ctx.Supply == nil || ctx.Supply.DaysSupply <= 0 {
		return "market_days_supply", 0, "no supply data"
	}
	mds := ctx.Supply.DaysSupply
	var pct float64
	switch {
	case mds < 30:
		pct = 0.07
	case mds < 60:
		pct = 0
	case mds < 90:
		pct = -0.04
	default:
		pct = -0.09
	}
	return "market_days_supply", ctx.BasePrice * pct,
		fmt.Sprintf("%.0f days of supply (%+.0f%%)", mds, pct*100)
}

func daysOnMarketStep(ctx Context) (string, float64, string) {
	dom := ctx.Analysis.DaysOnMarket
	if dom.Count == 0 {
		return "days_on_market", 0, "no days-on-market data"
	}
	var pct float64
	switch {
	case dom.Avg < 30:
		pct = 0.05
	case dom.Avg > 60:
		pct = -0.04
	}
	return "days_on_market", ctx.BasePrice * pct,
		fmt.Sprintf("average %.0f days on market (%+.0f%%)", dom.Avg, pct*100)
}

// trendStep applies half the measured trend, a conservatism factor
// against overreacting to short windows.
func trendStep(ctx Context) (string, float64, string) {
	trend := ctx.Analysis.Trend
	if math.Abs(trend.ChangePct) <= 3 {
		return "price_trend", 0, "trend within noise band"
	}
	amount := ctx.BasePrice * (trend.ChangePct / 100) * 0.5
	return "price_trend", amount,
		fmt.Sprintf("90-day trend %+.1f%%, applied at half strength", trend.ChangePct)
}

func volatilityStep(ctx Context) (string, float64, string) {
	if ctx.BasePrice <= 0 {
		return "volatility", 0, "no base price"
	}
	cov := ctx.Analysis.Price.StdDev / ctx.BasePrice
	if cov <= 0.15 {
		return "volatility", 0, fmt.Sprintf("price variation %.2f within tolerance", cov)
	}
	return "volatility", ctx.BasePrice * -0.02,
		fmt.Sprintf("high price variation %.2f (-2%%)", cov)
}

// certifiedStep: CPO-heavy markets lift an excellent-condition unit.
func certifiedStep(ctx Context) (string, float64, string) {
	mix := ctx.Analysis.Inventory
	if mix.Total() == 0 || ctx.Subject.Condition != model.ConditionExcellent {
		return "certified_premium", 0, "not eligible"
	}
	share := float64(mix.Certified) / float64(mix.Total())
	if share <= 0.20 {
		return "certified_premium", 0, fmt.Sprintf("certified share %.0f%% below threshold", share*100)
	}
	return "certified_premium", ctx.BasePrice * 0.10,
		fmt.Sprintf("certified share %.0f%% and excellent condition (+10%%)", share*100)
}

// negotiationStep: comparables are asking prices, not transactions.
func negotiationStep(ctx Context) (string, float64, string) {
	dom := ctx.Analysis.DaysOnMarket
	pct := -0.05
	switch {
	case dom.Count > 0 && dom.Avg < 20:
		pct = -0.03
	case dom.Count > 0 && dom.Avg > 60:
		pct = -0.07
	}
	return "negotiation", ctx.BasePrice * pct,
		fmt.Sprintf("asking-to-transaction discount %.0f%%", pct*100)
}
