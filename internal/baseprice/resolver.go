// Package baseprice resolves a single base price for the subject
// vehicle by trying pricing strategies in a fixed order of evidence
// quality and taking the first that produces a positive price.
package baseprice

import (
	"math"
	"sort"
	"time"

	"github.com/cwhited/dealerval/internal/market"
	"github.com/cwhited/dealerval/internal/model"
	"github.com/cwhited/dealerval/internal/similarity"
)

// Method tags record which strategy produced the base price.
type Method string

const (
	MethodSimilarityWeighted Method = "similarity_weighted"
	MethodMedian             Method = "median"
	MethodMarketAverage      Method = "market_average"
	MethodTrimmedMedian      Method = "trimmed_median"
	MethodDepreciation       Method = "msrp_depreciation_curve"
	MethodFallback           Method = "fallback_constant"
	MethodBlended            Method = "blended"
)

// fallbackPrice terminates the chain when every data-driven strategy
// fails. The engine never errors for lack of evidence.
const fallbackPrice = 15000.0

// crossValidationTolerance: an external predicted price further than
// this fraction from the resolved price triggers blending.
const crossValidationTolerance = 0.15

// Blend weights for cross-validation (resolved / external).
const (
	blendResolvedWeight = 0.60
	blendExternalWeight = 0.40
)

// Resolution is the outcome of the fallback chain.
type Resolution struct {
	Price           float64
	Method          Method
	CompsUsed       int
	OutliersRemoved int
	TopSimilarity   float64
	// ExternalPrice is recorded when cross-validation blending fired.
	ExternalPrice float64
}

// Resolve walks the strategy chain. analysis must be derived from
// b.Comparables; now anchors vehicle age for the depreciation curve.
func Resolve(b model.Bundle, analysis market.Analysis, now time.Time) Resolution {
	res := resolveChain(b, analysis, now)
	return crossValidate(res, b.MarketCheckPrice)
}

func resolveChain(b model.Bundle, analysis market.Analysis, now time.Time) Resolution {
	// Recently sold or delisted units join the evidence pool for
	// similarity weighting only.
	pool := append(append([]model.ComparableListing(nil), b.Comparables...), b.RecentListings...)
	if sim, err := similarity.WeightedBasePrice(b.Subject, pool, now); err == nil && sim.Price > 0 {
		return Resolution{
			Price:           sim.Price,
			Method:          MethodSimilarityWeighted,
			CompsUsed:       sim.CompsUsed,
			OutliersRemoved: sim.OutliersRemoved,
			TopSimilarity:   sim.TopSimilarity,
		}
	}

	if analysis.Price.Median > 0 {
		return Resolution{Price: analysis.Price.Median, Method: MethodMedian, CompsUsed: analysis.Price.Count}
	}

	if b.MarketStats != nil && b.MarketStats.AveragePrice > 0 {
		return Resolution{Price: b.MarketStats.AveragePrice, Method: MethodMarketAverage}
	}

	if price, n := trimmedMedian(b.Comparables); price > 0 {
		return Resolution{Price: price, Method: MethodTrimmedMedian, CompsUsed: n}
	}

	if price := depreciatedMSRP(b.Subject.Spec, now); price > 0 {
		return Resolution{Price: price, Method: MethodDepreciation}
	}

	return Resolution{Price: fallbackPrice, Method: MethodFallback}
}

// crossValidate blends in an externally predicted price when it
// disagrees with the resolved price by more than the tolerance.
func crossValidate(res Resolution, external float64) Resolution {
	if external <= 0 || res.Price <= 0 {
		return res
	}
	if math.Abs(res.Price-external)/res.Price <= crossValidationTolerance {
		return res
	}
	res.Price = res.Price*blendResolvedWeight + external*blendExternalWeight
	res.Method = MethodBlended
	res.ExternalPrice = external
	return res
}

// trimmedMedian sorts the positive comparable prices, discards the
// lowest and highest 10%, and takes the median of the remainder.
func trimmedMedian(comps []model.ComparableListing) (float64, int) {
	var prices []float64
	for _, c := range comps {
		if c.Price > 0 {
			prices = append(prices, c.Price)
		}
	}
	if len(prices) == 0 {
		return 0, 0
	}
	sort.Float64s(prices)

	trim := int(float64(len(prices)) * 0.10)
	kept := prices[trim : len(prices)-trim]
	if len(kept) == 0 {
		return 0, 0
	}

	n := len(kept)
	if n%2 == 0 {
		return (kept[n/2-1] + kept[n/2]) / 2, n
	}
	return kept[n/2], n
}

// depreciatedMSRP estimates value from MSRP and vehicle age when no
// market evidence exists.
func depreciatedMSRP(spec model.VehicleSpec, now time.Time) float64 {
	if spec.MSRP <= 0 || spec.Year <= 0 {
		return 0
	}
	age := now.Year() - spec.Year
	return spec.MSRP * DepreciationMultiplier(age)
}

// DepreciationMultiplier returns the fraction of MSRP a vehicle
// retains at the given age. Non-increasing in age, floored at 0.15.
func DepreciationMultiplier(age int) float64 {
	switch {
	case age <= 0:
		return 1.0
	case age == 1:
		return 0.80
	case age == 2:
		return 0.70
	case age == 3:
		return 0.62
	case age == 4:
		return 0.56
	case age == 5:
		return 0.51
	default:
		return math.Max(0.15, 0.51-0.04*float64(age-5))
	}
}
