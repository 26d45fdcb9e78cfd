// Package recorder persists an audit trail of completed valuations.
// The engine itself owns no persistence; the request handler hands
// results here after the fact.
package recorder

import (
	"time"

	"github.com/cwhited/dealerval/internal/model"
)

// Record is one completed valuation.
type Record struct {
	When           time.Time
	Subject        model.SubjectVehicle
	Result         model.ValuationResult
	CompCount      int
	ElapsedMillis  int64
	RequestedBy    string
	ListingZipCode string
}

// Recorder stores valuation records.
type Recorder interface {
	Record(rec *Record) error
	Close() error
}
