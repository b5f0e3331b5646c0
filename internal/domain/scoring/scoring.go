// Package scoring ranks candidate places against a partial set of traveller
// preferences. Each preference dimension contributes a multiplier in [0,1];
// a place's score is the product of the multipliers of every supplied
// dimension, rounded to four decimals.
package scoring

import (
	"context"

	"github.com/okian/wayfarer/internal/domain/place"
)

// Informational messages attached to empty results.
const (
	MsgNoCandidates = "no candidates provided"
	MsgNoneFound    = "none of the candidate ids were found"
)

// Dimension names one preference axis.
type Dimension string

// Preference dimensions in pipeline order.
const (
	DimensionStyle    Dimension = "style"
	DimensionBudget   Dimension = "budget"
	DimensionSeason   Dimension = "season"
	DimensionDuration Dimension = "duration"
)

// Catalog resolves place ids to records. It may return fewer records than
// ids requested and in any order.
type Catalog interface {
	Lookup(ctx context.Context, ids []string) ([]place.Record, error)
}

// Request carries candidate ids and the raw, unvalidated filters. A nil or
// blank enumeration filter is treated as not supplied, as is a nil
// TripDuration.
type Request struct {
	CandidateIDs []string
	TravelStyle  *string
	BudgetLevel  *string
	Season       *string
	// TripDuration is a number or numeric string in days.
	TripDuration any
}

// Multiplier is one dimension's factor for one place.
type Multiplier struct {
	PlaceID string
	Value   float64
}

// ScoredPlace is a ranked output entry.
type ScoredPlace struct {
	PlaceID string  `json:"place_id"`
	Score   float64 `json:"score"`
}

// Result is the ranked list together with the dimensions that were applied.
type Result struct {
	Places  []ScoredPlace
	Message string
	Applied []Dimension
}
