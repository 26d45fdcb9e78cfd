// Package valuation turns a decoded vehicle plus market evidence into
// a multi-tier price estimate with confidence and vehicle scores. The
// engine is pure: no I/O, no shared state, identical input yields
// identical output.
package valuation

import (
	"math"
	"time"

	"github.com/cwhited/dealerval/internal/adjust"
	"github.com/cwhited/dealerval/internal/baseprice"
	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
)

// Tier fractions of the retail price.
const (
	wholesaleFraction = 0.75
	tradeInFraction   = 0.85
	quickSaleFraction = 0.92
)

// Days-to-turn multipliers against the observed average days on market.
const (
	turnBaselineDays      = 30.0
	turnWholesaleFactor   = 0.3
	turnTradeInFactor     = 0.5
	turnQuickSaleFactor   = 0.6
	turnRetailFactor      = 1.0
	turnAboveMarketFactor = 1.5
)

// Engine computes valuations. The zero value is not usable; construct
// with New.
type Engine struct {
	clock func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock pins the engine's notion of "now", making results
// repeatable for a fixed input. Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// New returns a ready Engine.
func New(opts ...Option) *Engine {
	e := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Value runs the full pipeline: market analysis, base-price
// resolution, adjustments, tier pricing, and scoring.
func (e *Engine) Value(b model.Bundle) model.ValuationResult {
	now := e.clock()

	analysis := market.Analyze(b.Comparables, b.Supply, b.PriceHistory, now)
	resolution := baseprice.Resolve(b, analysis, now)

	out := adjust.Apply(adjust.Context{
		BasePrice: resolution.Price,
		Subject:   b.Subject,
		Analysis:  analysis,
		Supply:    b.Supply,
		Now:       now,
	})

	retail := out.RetailPrice
	result := model.ValuationResult{
		WholesalePrice: math.Round(retail * wholesaleFraction),
		TradeInPrice:   math.Round(retail * tradeInFraction),
		QuickSalePrice: math.Round(retail * quickSaleFraction),
		RetailPrice:    retail,
		MarketAverage:  math.Round(resolution.Price),
		DaysToTurn:     daysToTurn(analysis),
		Confidence:     confidence(b, analysis),
		Breakdown:      breakdown(resolution, out, retail),
	}
	result.VehicleScore = vehicleScore(b.Subject, analysis)
	result.MarketPosition = marketPosition(result.VehicleScore)
	return result
}

func breakdown(res baseprice.Resolution, out adjust.Outcome, retail float64) model.ValuationBreakdown {
	return model.ValuationBreakdown{
		BasePrice:            math.Round(res.Price),
		Method:               string(res.Method),
		CompsUsed:            res.CompsUsed,
		OutliersRemoved:      res.OutliersRemoved,
		TopSimilarity:        res.TopSimilarity,
		MileageAdjustment:    math.Round(out.MileageAdj),
		PerMileRate:          out.PerMileRate,
		MDSAdjustment:        math.Round(out.MDSAdj),
		DOMAdjustment:        math.Round(out.DOMAdj),
		TrendAdjustment:      math.Round(out.TrendAdj),
		VolatilityAdjustment: math.Round(out.VolatilityAdj),
		CertifiedPremium:     math.Round(out.CertifiedPremium),
		NegotiationDiscount:  math.Round(out.NegotiationDiscount),
		ConditionMultiplier:  out.ConditionMultiplier,
		CrossValidationPrice: math.Round(res.ExternalPrice),
		FinalPrice:           retail,
		Adjustments:          out.Entries,
	}
}

// daysToTurn scales the observed average days on market across
// disposition strategies, using a 30-day baseline when unknown.
func daysToTurn(analysis market.Analysis) model.DaysToTurn {
	base := turnBaselineDays
	if analysis.DaysOnMarket.Count > 0 {
		base = analysis.DaysOnMarket.Avg
	}
	return model.DaysToTurn{
		Wholesale:   int(math.Round(base * turnWholesaleFactor)),
		TradeIn:     int(math.Round(base * turnTradeInFactor)),
		QuickSale:   int(math.Round(base * turnQuickSaleFactor)),
		Retail:      int(math.Round(base * turnRetailFactor)),
		AboveMarket: int(math.Round(base * turnAboveMarketFactor)),
	}
}
