// Package market derives aggregate statistics from comparable listings,
// market supply data, and VIN price history. Every computation is
// tolerant of missing data: absent inputs yield zero-valued stats, not
// errors.
package market

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cwhited/dealerval/internal/model"
)

// Condition classifies how quickly inventory is turning.
type Condition string

const (
	ConditionHot    Condition = "hot"
	ConditionNormal Condition = "normal"
	ConditionSlow   Condition = "slow"
)

// TrendDirection labels the 90-day price movement.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// DOMStats is the days-on-market distribution over comparables that
// report a value.
type DOMStats struct {
	Avg    float64 `json:"avg"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Volatility summarizes the spread of a numeric series using the
// population standard deviation.
type Volatility struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// TrendPoint is one observation on the 90-day trendline.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Trend is the 90-day price movement for the specific VIN.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	ChangePct float64        `json:"change_pct"`
	Line      []TrendPoint   `json:"line,omitempty"`
}

// InventoryMix counts comparables by inventory classification.
type InventoryMix struct {
	Certified int `json:"certified"`
	New       int `json:"new"`
	Used      int `json:"used"`
}

// Total returns the number of classified comparables.
func (m InventoryMix) Total() int { return m.Certified + m.New + m.Used }

// Analysis is the derived market aggregate consumed by the base-price
// resolver and adjustment pipeline.
type Analysis struct {
	DaysOnMarket  DOMStats     `json:"days_on_market"`
	Price         Volatility   `json:"price"`
	Mileage       Volatility   `json:"mileage"`
	Trend         Trend        `json:"trend"`
	SalesVelocity float64      `json:"sales_velocity"`
	Condition     Condition    `json:"condition"`
	Inventory     InventoryMix `json:"inventory"`
	DaysSupply    float64      `json:"days_supply,omitempty"`
}

// trendWindow is how far back price history is considered.
const trendWindow = 90 * 24 * time.Hour

// trendThresholdPct: price moves smaller than this are reported stable.
const trendThresholdPct = 3.0

// Analyze computes the full market aggregate. now anchors the trend
// window so results are repeatable for a fixed input.
func Analyze(comps []model.ComparableListing, supply *model.MarketSupplyData, history []model.PriceHistoryEntry, now time.Time) Analysis {
	a := Analysis{
		DaysOnMarket: domStats(comps),
		Price:        priceVolatility(comps),
		Mileage:      mileageVolatility(comps),
		Trend:        priceTrend(history, now),
		Inventory:    inventoryMix(comps),
	}
	if supply != nil {
		a.DaysSupply = supply.DaysSupply
		if supply.SalesCount > 0 && supply.DaysSupply > 0 {
			a.SalesVelocity = float64(supply.SalesCount) / (supply.DaysSupply / 30)
		}
	}
	a.Condition = classify(a, supply)
	return a
}

// classify applies the hot/slow tests in priority order: any hot signal
// wins over any slow signal.
func classify(a Analysis, supply *model.MarketSupplyData) Condition {
	hasDOM := a.DaysOnMarket.Count > 0
	hasSupply := supply != nil && supply.DaysSupply > 0

	switch {
	case hasDOM && a.DaysOnMarket.Avg < 30,
		hasSupply && supply.DaysSupply < 30,
		a.Trend.Direction == TrendUp:
		return ConditionHot
	case hasDOM && a.DaysOnMarket.Avg > 60,
		hasSupply && supply.DaysSupply > 90,
		a.Trend.Direction == TrendDown:
		return ConditionSlow
	default:
		return ConditionNormal
	}
}

func domStats(comps []model.ComparableListing) DOMStats {
	var days []float64
	stats := DOMStats{}
	for _, c := range comps {
		if c.DaysOnMarket > 0 {
			days = append(days, float64(c.DaysOnMarket))
			if stats.Min == 0 || c.DaysOnMarket < stats.Min {
				stats.Min = c.DaysOnMarket
			}
			if c.DaysOnMarket > stats.Max {
				stats.Max = c.DaysOnMarket
			}
		}
	}
	if len(days) == 0 {
		return stats
	}
	var sum float64
	for _, d := range days {
		sum += d
	}
	stats.Avg = sum / float64(len(days))
	stats.Median = median(days)
	stats.Count = len(days)
	return stats
}

func priceVolatility(comps []model.ComparableListing) Volatility {
	var values []float64
	for _, c := range comps {
		if c.Price > 0 {
			values = append(values, c.Price)
		}
	}
	return volatility(values)
}

func mileageVolatility(comps []model.ComparableListing) Volatility {
	var values []float64
	for _, c := range comps {
		if c.Mileage > 0 {
			values = append(values, float64(c.Mileage))
		}
	}
	return volatility(values)
}

func volatility(values []float64) Volatility {
	v := Volatility{Count: len(values)}
	if len(values) == 0 {
		return v
	}
	v.Min = values[0]
	v.Max = values[0]
	var sum float64
	for _, x := range values {
		sum += x
		if x < v.Min {
			v.Min = x
		}
		if x > v.Max {
			v.Max = x
		}
	}
	v.Mean = sum / float64(len(values))
	v.Median = median(values)

	var variance float64
	for _, x := range values {
		d := x - v.Mean
		variance += d * d
	}
	v.StdDev = math.Sqrt(variance / float64(len(values)))
	return v
}

// priceTrend measures the percentage change between the oldest and
// newest history entries inside the trend window.
func priceTrend(history []model.PriceHistoryEntry, now time.Time) Trend {
	cutoff := now.Add(-trendWindow)
	var recent []model.PriceHistoryEntry
	for _, h := range history {
		if h.Price > 0 && !h.Date.IsZero() && h.Date.After(cutoff) {
			recent = append(recent, h)
		}
	}
	if len(recent) < 2 {
		return Trend{Direction: TrendStable}
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].Date.Before(recent[j].Date) })

	line := make([]TrendPoint, len(recent))
	for i, h := range recent {
		line[i] = TrendPoint{Date: h.Date, Price: h.Price}
	}

	oldest := recent[0].Price
	newest := recent[len(recent)-1].Price
	changePct := (newest - oldest) / oldest * 100

	direction := TrendStable
	if changePct > trendThresholdPct {
		direction = TrendUp
	} else if changePct < -trendThresholdPct {
		direction = TrendDown
	}
	return Trend{Direction: direction, ChangePct: changePct, Line: line}
}

func inventoryMix(comps []model.ComparableListing) InventoryMix {
	var mix InventoryMix
	for _, c := range comps {
		t := strings.ToLower(c.InventoryType)
		switch {
		case c.Certified || strings.Contains(t, "certified") || strings.Contains(t, "cpo"):
			mix.Certified++
		case strings.Contains(t, "new"):
			mix.New++
		default:
			mix.Used++
		}
	}
	return mix
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
