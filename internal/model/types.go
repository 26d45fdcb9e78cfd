package model

import "time"

// Condition is the user-reported state of the subject vehicle.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Valid reports whether c is one of the four known condition grades.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// VehicleSpec is the decoded vehicle specification supplied by an
// external VIN-decode collaborator.
type VehicleSpec struct {
	VIN          string  `json:"vin"`
	Year         int     `json:"year"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Trim         string  `json:"trim,omitempty"`
	Engine       string  `json:"engine,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	Drivetrain   string  `json:"drivetrain,omitempty"`
	BodyStyle    string  `json:"body_style,omitempty"`
	MSRP         float64 `json:"msrp,omitempty"`
}

// SubjectVehicle is the vehicle being valued.
type SubjectVehicle struct {
	Spec      VehicleSpec `json:"spec"`
	Mileage   int         `json:"mileage"`
	Condition Condition   `json:"condition"`
}

// Dealer seller classifications seen on comparable listings.
const (
	DealerFranchise   = "franchise"
	DealerIndependent = "independent"
	DealerPrivate     = "private"
)

// ComparableListing is one market listing used as pricing evidence.
// Constructed fresh per request from upstream data, never persisted.
type ComparableListing struct {
	Price         float64   `json:"price"`
	Mileage       int       `json:"mileage,omitempty"`
	Year          int       `json:"year,omitempty"`
	Trim          string    `json:"trim,omitempty"`
	ExteriorColor string    `json:"exterior_color,omitempty"`
	DealerName    string    `json:"dealer_name,omitempty"`
	DealerCity    string    `json:"dealer_city,omitempty"`
	DealerState   string    `json:"dealer_state,omitempty"`
	DealerType    string    `json:"dealer_type,omitempty"`
	DistanceMiles float64   `json:"distance_miles,omitempty"`
	ListingDate   time.Time `json:"listing_date,omitempty"`
	DaysOnMarket  int       `json:"days_on_market,omitempty"`
	Certified     bool      `json:"certified,omitempty"`
	InventoryType string    `json:"inventory_type,omitempty"` // new, used, certified
	PhotoURL      string    `json:"photo_url,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// PriceHistoryEntry is a VIN-specific historical listing record. Used
// for trend and confidence only, never for base-price averaging.
type PriceHistoryEntry struct {
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Mileage    int       `json:"mileage,omitempty"`
	DealerName string    `json:"dealer_name,omitempty"`
	Status     string    `json:"status,omitempty"`
}

// MarketSupplyData is the aggregate days-of-supply figure for the
// subject's year/make/model.
type MarketSupplyData struct {
	DaysSupply     float64 `json:"days_supply"`
	InventoryCount int     `json:"inventory_count,omitempty"`
	SalesCount     int     `json:"sales_count,omitempty"`
}

// MarketStats is an aggregate supplied directly by the data provider.
// Only consulted as a lower-priority base-price fallback.
type MarketStats struct {
	AveragePrice   float64 `json:"average_price,omitempty"`
	AverageMileage float64 `json:"average_mileage,omitempty"`
	ListingCount   int     `json:"listing_count,omitempty"`
}

// Bundle is the atomic immutable input the engine is invoked with.
// The caller owns validation and upstream fetching; any gaps here are
// treated as neutral/unknown, never as fatal.
type Bundle struct {
	Subject          SubjectVehicle      `json:"subject"`
	Comparables      []ComparableListing `json:"comparables"`
	RecentListings   []ComparableListing `json:"recent_listings,omitempty"`
	PriceHistory     []PriceHistoryEntry `json:"price_history,omitempty"`
	Supply           *MarketSupplyData   `json:"supply,omitempty"`
	MarketStats      *MarketStats        `json:"market_stats,omitempty"`
	MarketCheckPrice float64             `json:"market_check_price,omitempty"`
}
