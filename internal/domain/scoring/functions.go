package scoring

import (
	"math"

	"github.com/okian/wayfarer/internal/domain/place"
)

// The scoring functions below never mutate places and return exactly one
// multiplier per input place, in input order. Unknown values on a record are
// mismatches.

// ByStyle scores 1.0 for a matching travel style and MismatchPenalty otherwise.
func (p Policy) ByStyle(places []place.Record, style place.TravelStyle) []Multiplier {
	out := make([]Multiplier, len(places))
	for i, rec := range places {
		v := p.MismatchPenalty
		if rec.TravelStyle == style {
			v = 1.0
		}
		out[i] = Multiplier{PlaceID: rec.PlaceID, Value: v}
	}
	return out
}

// ByBudget scores budget tiers. In exact mode it behaves like ByStyle; in
// graduated mode the multiplier falls linearly with tier distance on
// ECONOMY < MODERATE < LUXURY.
func (p Policy) ByBudget(places []place.Record, budget place.BudgetLevel) []Multiplier {
	out := make([]Multiplier, len(places))
	for i, rec := range places {
		var v float64
		switch {
		case rec.BudgetLevel == budget:
			v = 1.0
		case !p.BudgetGraduated || rec.BudgetLevel.Tier() < 0 || budget.Tier() < 0:
			v = p.MismatchPenalty
		default:
			v = p.graded(absInt(rec.BudgetLevel.Tier() - budget.Tier()))
		}
		out[i] = Multiplier{PlaceID: rec.PlaceID, Value: v}
	}
	return out
}

// BySeason scores seasons. In graduated mode the distance wraps around the
// year, so WINTER and SPRING are neighbours.
func (p Policy) BySeason(places []place.Record, season place.Season) []Multiplier {
	out := make([]Multiplier, len(places))
	for i, rec := range places {
		var v float64
		switch {
		case rec.Season == season:
			v = 1.0
		case !p.SeasonGraduated || rec.Season.Index() < 0 || season.Index() < 0:
			v = p.MismatchPenalty
		default:
			v = p.graded(seasonDistance(rec.Season, season))
		}
		out[i] = Multiplier{PlaceID: rec.PlaceID, Value: v}
	}
	return out
}

// ByDuration scores closeness of the recommended visit length to the
// requested trip length: 1 / (1 + |d - requested| / DurationScale).
func (p Policy) ByDuration(places []place.Record, requested float64) []Multiplier {
	scale := p.DurationScale
	if !(scale > 0) {
		scale = DefaultDurationScale
	}
	out := make([]Multiplier, len(places))
	for i, rec := range places {
		d := rec.Duration
		if math.IsNaN(d) || d < 0 {
			d = 0
		}
		v := 1 / (1 + math.Abs(d-requested)/scale)
		out[i] = Multiplier{PlaceID: rec.PlaceID, Value: v}
	}
	return out
}

func seasonDistance(a, b place.Season) int {
	n := len(place.Seasons)
	d := absInt(a.Index() - b.Index())
	return min(d, n-d)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
