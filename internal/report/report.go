// Package report renders valuation results as row/column tables and
// CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwhited/dealerval/internal/model"
)

// PricingTable lists every disposition price alongside its estimated
// days to turn.
func PricingTable(res *model.ValuationResult) [][]string {
	out := [][]string{
		{"Strategy", "Price", "DaysToTurn"},
		{"wholesale", money(res.WholesalePrice), strconv.Itoa(res.DaysToTurn.Wholesale)},
		{"trade_in", money(res.TradeInPrice), strconv.Itoa(res.DaysToTurn.TradeIn)},
		{"quick_sale", money(res.QuickSalePrice), strconv.Itoa(res.DaysToTurn.QuickSale)},
		{"retail", money(res.RetailPrice), strconv.Itoa(res.DaysToTurn.Retail)},
	}
	return out
}

// BreakdownTable itemizes the path from base price to final retail,
// one row per ledger entry.
func BreakdownTable(res *model.ValuationResult) [][]string {
	b := res.Breakdown
	out := [][]string{
		{"Step", "Amount", "Rationale"},
		{"base_price (" + b.Method + ")", money(b.BasePrice), fmt.Sprintf("%d comps, %d outliers removed", b.CompsUsed, b.OutliersRemoved)},
	}
	for _, adj := range b.Adjustments {
		out = append(out, []string{adj.Name, signedMoney(adj.Amount), adj.Rationale})
	}
	out = append(out, []string{"final_retail", money(b.FinalPrice), ""})
	return out
}

// SummaryTable is the one-screen overview.
func SummaryTable(subject model.SubjectVehicle, res *model.ValuationResult) [][]string {
	spec := subject.Spec
	vehicle := strings.TrimSpace(fmt.Sprintf("%d %s %s %s", spec.Year, spec.Make, spec.Model, spec.Trim))
	rows := [][]string{
		{"Field", "Value"},
		{"Vehicle", vehicle},
		{"VIN", spec.VIN},
		{"Mileage", strconv.Itoa(subject.Mileage)},
		{"Condition", string(subject.Condition)},
		{"RetailPrice", money(res.RetailPrice)},
		{"MarketAverage", money(res.MarketAverage)},
		{"VehicleScore", strconv.Itoa(res.VehicleScore)},
		{"MarketPosition", res.MarketPosition},
		{"Confidence", strconv.Itoa(res.Confidence.Score)},
	}
	for _, f := range res.Confidence.Factors {
		rows = append(rows, []string{"ConfidenceFactor", f})
	}
	return rows
}

// ComparablesTable lists the market evidence the caller supplied, for
// inclusion alongside the valuation itself.
func ComparablesTable(comps []model.ComparableListing) [][]string {
	out := [][]string{
		{"Price", "Mileage", "Year", "Trim", "Dealer", "DealerType", "DistanceMiles", "DaysOnMarket", "Certified"},
	}
	for _, c := range comps {
		if c.Price <= 0 {
			continue
		}
		out = append(out, []string{
			money(c.Price),
			strconv.Itoa(c.Mileage),
			strconv.Itoa(c.Year),
			c.Trim,
			c.DealerName,
			c.DealerType,
			strconv.FormatFloat(c.DistanceMiles, 'f', 1, 64),
			strconv.Itoa(c.DaysOnMarket),
			strconv.FormatBool(c.Certified),
		})
	}
	return out
}

// WriteCSV writes rows to w with formula-injection escaping applied to
// every cell.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range EscapeRows(rows) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText renders rows as aligned plain-text columns.
func WriteText(w io.Writer, rows [][]string) error {
	widths := columnWidths(rows)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func money(v float64) string {
	if v <= 0 {
		return ""
	}
	return "$" + strconv.FormatFloat(round2(v), 'f', 2, 64)
}

// signedMoney keeps the sign visible so credits and debits read apart
// in the ledger. Zero renders as "$0.00" rather than blank.
func signedMoney(v float64) string {
	s := "$" + strconv.FormatFloat(math.Abs(round2(v)), 'f', 2, 64)
	if v < 0 {
		return "-" + s
	}
	if v > 0 {
		return "+" + s
	}
	return s
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
