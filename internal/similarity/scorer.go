package similarity

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/cwhited/dealerval/internal/model"
)

// Evidence failures surfaced to the base-price resolver. None of these
// are fatal to a valuation; the resolver falls through to the next
// strategy.
var (
	ErrInsufficientData = errors.New("fewer than 3 comparables with a positive price")
	ErrAllOutliers      = errors.New("fewer than 2 comparables survived outlier rejection")
	ErrZeroWeights      = errors.New("total similarity weight is zero")
)

// Fixed sub-score weights. They sum to 1.0; mileage and trim dominate
// because they track value most directly.
const (
	weightMileage  = 0.35
	weightTrim     = 0.25
	weightDistance = 0.15
	weightRecency  = 0.10
	weightDOM      = 0.10
	weightDealer   = 0.05
)

// neutralScore is used for any sub-score whose underlying field is missing.
const neutralScore = 0.5

// mileageSigma is the Gaussian decay width for mileage proximity.
const mileageSigma = 15000.0

// outlierSigmas: comparables beyond this many standard deviations from
// the mean price are excluded from the average.
const outlierSigmas = 2.0

// Result is the outcome of a similarity-weighted averaging pass.
type Result struct {
	Price           float64
	CompsUsed       int
	OutliersRemoved int
	// TopSimilarity is the highest combined (pre-squaring) similarity
	// score among surviving comparables, a downstream confidence signal.
	TopSimilarity float64
	Method        string
}

// WeightedBasePrice produces a single base price from market
// comparables, weighting each by how closely it matches the subject.
// Weights are squared before averaging to amplify the separation
// between strong and weak matches.
func WeightedBasePrice(subject model.SubjectVehicle, comps []model.ComparableListing, now time.Time) (Result, error) {
	priced := make([]model.ComparableListing, 0, len(comps))
	for _, c := range comps {
		if c.Price > 0 {
			priced = append(priced, c)
		}
	}
	if len(priced) < 3 {
		return Result{}, ErrInsufficientData
	}

	survivors, removed := rejectOutliers(priced)
	if len(survivors) < 2 {
		return Result{OutliersRemoved: removed}, ErrAllOutliers
	}

	var weightedSum, totalWeight, topScore float64
	for _, c := range survivors {
		score := Score(subject, c, now)
		if score > topScore {
			topScore = score
		}
		w := score * score
		weightedSum += c.Price * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return Result{OutliersRemoved: removed}, ErrZeroWeights
	}

	return Result{
		Price:           weightedSum / totalWeight,
		CompsUsed:       len(survivors),
		OutliersRemoved: removed,
		TopSimilarity:   topScore,
		Method:          "similarity_weighted",
	}, nil
}

// Score combines the six sub-scores into one relevance score in [0,1].
func Score(subject model.SubjectVehicle, c model.ComparableListing, now time.Time) float64 {
	return weightMileage*mileageScore(subject.Mileage, c.Mileage) +
		weightTrim*trimScore(subject.Spec.Trim, c.Trim) +
		weightDistance*distanceScore(c.DistanceMiles) +
		weightRecency*recencyScore(c.ListingDate, now) +
		weightDOM*domScore(c.DaysOnMarket) +
		weightDealer*dealerScore(c.DealerType, c.Certified)
}

// rejectOutliers drops comparables whose price deviates more than
// outlierSigmas standard deviations from the mean.
func rejectOutliers(comps []model.ComparableListing) (kept []model.ComparableListing, removed int) {
	var sum float64
	for _, c := range comps {
		sum += c.Price
	}
	mean := sum / float64(len(comps))

	var variance float64
	for _, c := range comps {
		d := c.Price - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(comps)))

	if stddev == 0 {
		return comps, 0
	}

	kept = make([]model.ComparableListing, 0, len(comps))
	for _, c := range comps {
		if math.Abs(c.Price-mean) > outlierSigmas*stddev {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// mileageScore decays with the squared mileage gap. Identical mileage
// scores 1.0; a 15k gap scores ~0.61; a 30k gap ~0.14.
func mileageScore(subjectMiles, compMiles int) float64 {
	if subjectMiles <= 0 || compMiles <= 0 {
		return neutralScore
	}
	delta := float64(subjectMiles - compMiles)
	return math.Exp(-(delta * delta) / (2 * mileageSigma * mileageSigma))
}

func trimScore(subjectTrim, compTrim string) float64 {
	if subjectTrim == "" || compTrim == "" {
		return neutralScore
	}
	a := strings.ToLower(strings.TrimSpace(subjectTrim))
	b := strings.ToLower(strings.TrimSpace(compTrim))
	switch {
	case a == b:
		return 1.0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.7
	default:
		return 0.2
	}
}

// distanceScore is 1.0 within 25 miles, decaying linearly to a 0.1
// floor at 200 miles.
func distanceScore(miles float64) float64 {
	if miles <= 0 {
		return neutralScore
	}
	if miles <= 25 {
		return 1.0
	}
	score := 1.0 - (miles-25)/(200-25)*0.9
	return math.Max(0.1, score)
}

// recencyScore is 1.0 for listings within 7 days, decaying linearly to
// a 0.1 floor at 90 days.
func recencyScore(listed time.Time, now time.Time) float64 {
	if listed.IsZero() {
		return neutralScore
	}
	days := now.Sub(listed).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days <= 7 {
		return 1.0
	}
	score := 1.0 - (days-7)/(90-7)*0.9
	return math.Max(0.1, score)
}

// domScore rewards fresh listings: stale inventory is weaker evidence
// of a clearing price. Beyond 60 days it decays linearly toward a 0.2
// floor at 120 days.
func domScore(dom int) float64 {
	switch {
	case dom <= 0:
		return neutralScore
	case dom <= 15:
		return 1.0
	case dom <= 30:
		return 0.85
	case dom <= 60:
		return 0.6
	default:
		score := 0.6 - float64(dom-60)/60*0.4
		return math.Max(0.2, score)
	}
}

func dealerScore(dealerType string, certified bool) float64 {
	switch strings.ToLower(dealerType) {
	case model.DealerFranchise:
		if certified {
			return 1.0
		}
		return 0.85
	case model.DealerIndependent:
		return 0.6
	case model.DealerPrivate:
		return 0.4
	default:
		return neutralScore
	}
}
