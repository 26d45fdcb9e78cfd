package listings

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cwhited/dealerval/internal/model"
)

var nonDigits = regexp.MustCompile(`[^0-9.]`)

// ParseSearchResults extracts comparable listings from a search
// results page. Listings without a price are skipped; every other
// field is best-effort.
func ParseSearchResults(r io.Reader, now time.Time) ([]model.ComparableListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	var comps []model.ComparableListing
	doc.Find("div.listing-card, li[data-listing]").Each(func(_ int, card *goquery.Selection) {
		c := model.ComparableListing{Status: "active"}

		c.Price = parseMoney(card.Find(".listing-price, [data-price]").First().Text())
		if c.Price <= 0 {
			if raw, ok := card.Attr("data-price"); ok {
				c.Price = parseMoney(raw)
			}
		}
		if c.Price <= 0 {
			return
		}

		title := strings.TrimSpace(card.Find(".listing-title, h3").First().Text())
		c.Year, c.Trim = parseTitle(title)

		c.Mileage = int(parseNumber(card.Find(".listing-mileage, [data-mileage]").First().Text()))
		c.ExteriorColor = strings.TrimSpace(card.Find(".listing-color").First().Text())
		c.DealerName = strings.TrimSpace(card.Find(".dealer-name").First().Text())
		c.DealerCity, c.DealerState = parseLocation(card.Find(".dealer-location").First().Text())
		c.DealerType = normalizeDealerType(card.AttrOr("data-dealer-type", ""))
		c.DistanceMiles = parseNumber(card.Find(".listing-distance").First().Text())
		c.DaysOnMarket = int(parseNumber(card.AttrOr("data-days-on-market", "")))
		c.InventoryType = strings.ToLower(card.AttrOr("data-inventory-type", "used"))
		c.Certified = card.AttrOr("data-certified", "") == "true" ||
			strings.Contains(c.InventoryType, "certified")
		if src, ok := card.Find("img").First().Attr("src"); ok {
			c.PhotoURL = src
		}
		if listed := card.AttrOr("data-listed", ""); listed != "" {
			if ts, err := time.Parse("2006-01-02", listed); err == nil {
				c.ListingDate = ts
			}
		} else if c.DaysOnMarket > 0 {
			c.ListingDate = now.AddDate(0, 0, -c.DaysOnMarket)
		}

		comps = append(comps, c)
	})

	return comps, nil
}

// parseMoney reads "$21,500" style strings into a float.
func parseMoney(s string) float64 {
	return parseNumber(s)
}

// parseNumber strips currency symbols, commas, and unit suffixes.
func parseNumber(s string) float64 {
	cleaned := nonDigits.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseTitle reads "2022 Honda Accord EX-L" into year and trim. The
// trim is whatever follows the make and model tokens.
func parseTitle(title string) (year int, trim string) {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return 0, ""
	}
	if y, err := strconv.Atoi(fields[0]); err == nil && y > 1900 && y < 2100 {
		year = y
		fields = fields[1:]
	}
	if len(fields) > 2 {
		trim = strings.Join(fields[2:], " ")
	}
	return year, trim
}

// parseLocation splits "San Jose, CA" into city and state.
func parseLocation(s string) (city, state string) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	city = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		state = strings.TrimSpace(parts[1])
	}
	return city, state
}

func normalizeDealerType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "franchise", "franchised":
		return model.DealerFranchise
	case "independent":
		return model.DealerIndependent
	case "private", "private-seller", "fsbo":
		return model.DealerPrivate
	default:
		return ""
	}
}
