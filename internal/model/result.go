package model

// AdjustmentEntry is one line of the itemized valuation ledger:
// a named price correction, its signed amount, and why it was applied.
type AdjustmentEntry struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Rationale string  `json:"rationale"`
}

// ValuationBreakdown is the itemized ledger of every adjustment
// applied between the resolved base price and the final retail price.
// Immutable once produced.
type ValuationBreakdown struct {
	BasePrice            float64 `json:"base_price"`
	Method               string  `json:"method"`
	CompsUsed            int     `json:"comps_used"`
	OutliersRemoved      int     `json:"outliers_removed"`
	TopSimilarity        float64 `json:"top_similarity,omitempty"`
	MileageAdjustment    float64 `json:"mileage_adjustment"`
	PerMileRate          float64 `json:"per_mile_rate"`
	MDSAdjustment        float64 `json:"mds_adjustment"`
	DOMAdjustment        float64 `json:"dom_adjustment"`
	TrendAdjustment      float64 `json:"trend_adjustment"`
	VolatilityAdjustment float64 `json:"volatility_adjustment"`
	CertifiedPremium     float64 `json:"certified_premium"`
	NegotiationDiscount  float64 `json:"negotiation_discount"`
	ConditionMultiplier  float64 `json:"condition_multiplier"`
	CrossValidationPrice float64 `json:"cross_validation_price,omitempty"`
	FinalPrice           float64 `json:"final_price"`

	Adjustments []AdjustmentEntry `json:"adjustments"`
}

// DaysToTurn estimates how long each disposition strategy takes to
// move the vehicle, in days.
type DaysToTurn struct {
	Wholesale   int `json:"wholesale"`
	TradeIn     int `json:"trade_in"`
	QuickSale   int `json:"quick_sale"`
	Retail      int `json:"retail"`
	AboveMarket int `json:"above_market"`
}

// ConfidenceScore rates how much evidence backs the valuation, with
// human-readable contributing factors.
type ConfidenceScore struct {
	Score   int      `json:"score"` // 0-95
	Factors []string `json:"factors"`
}

// ValuationResult is the engine's sole output. All prices are rounded
// to whole currency units.
type ValuationResult struct {
	WholesalePrice float64 `json:"wholesale_price"`
	TradeInPrice   float64 `json:"trade_in_price"`
	QuickSalePrice float64 `json:"quick_sale_price"`
	RetailPrice    float64 `json:"retail_price"`
	MarketAverage  float64 `json:"market_average"`

	DaysToTurn     DaysToTurn         `json:"days_to_turn"`
	Confidence     ConfidenceScore    `json:"confidence"`
	VehicleScore   int                `json:"vehicle_score"` // 0-100
	MarketPosition string             `json:"market_position"`
	Breakdown      ValuationBreakdown `json:"breakdown"`
}
