package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder writes valuation records to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs
// migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuations (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			vin              TEXT,
			year             INTEGER,
			make             TEXT,
			model            TEXT,
			trim             TEXT,
			mileage          INTEGER,
			condition        TEXT,
			base_price       REAL,
			method           TEXT,
			retail_price     REAL,
			quick_sale_price REAL,
			trade_in_price   REAL,
			wholesale_price  REAL,
			market_average   REAL,
			confidence       INTEGER,
			vehicle_score    INTEGER,
			market_position  TEXT,
			comps_used       INTEGER,
			outliers_removed INTEGER,
			comp_count       INTEGER,
			elapsed_ms       INTEGER,
			requested_by     TEXT,
			zip_code         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_ts ON valuations(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_vin ON valuations(vin)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Record(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := rec.Result
	_, err := r.db.Exec(`INSERT INTO valuations
		(timestamp, vin, year, make, model, trim, mileage, condition,
		 base_price, method, retail_price, quick_sale_price, trade_in_price,
		 wholesale_price, market_average, confidence, vehicle_score,
		 market_position, comps_used, outliers_removed, comp_count,
		 elapsed_ms, requested_by, zip_code)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.When.Unix(),
		rec.Subject.Spec.VIN, rec.Subject.Spec.Year, rec.Subject.Spec.Make,
		rec.Subject.Spec.Model, rec.Subject.Spec.Trim,
		rec.Subject.Mileage, string(rec.Subject.Condition),
		res.Breakdown.BasePrice, res.Breakdown.Method,
		res.RetailPrice, res.QuickSalePrice, res.TradeInPrice,
		res.WholesalePrice, res.MarketAverage,
		res.Confidence.Score, res.VehicleScore, res.MarketPosition,
		res.Breakdown.CompsUsed, res.Breakdown.OutliersRemoved,
		rec.CompCount, rec.ElapsedMillis, rec.RequestedBy, rec.ListingZipCode,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
