package scoring

import (
	"math"
)

// Default policy values.
const (
	DefaultMismatchPenalty = 0.5
	DefaultDurationScale   = 1.0
	DefaultNoFilterScore   = 1.0
)

// maxCategoricalDistance is the largest tier distance for budget (ECONOMY to
// LUXURY) and the largest cyclic distance between two seasons.
const maxCategoricalDistance = 2

// Policy holds the tunables of the scoring functions.
type Policy struct {
	// MismatchPenalty is the multiplier for a categorical mismatch.
	MismatchPenalty float64
	// DurationScale is the difference in days at which the duration
	// multiplier drops to one half.
	DurationScale float64
	// BudgetGraduated scores adjacent budget tiers above distant ones.
	BudgetGraduated bool
	// SeasonGraduated scores neighbouring seasons above opposite ones.
	SeasonGraduated bool
	// NoFilterScore is given to every resolved place when no filter applies.
	NoFilterScore float64
}

// DefaultPolicy returns exact-match scoring with a 0.5 mismatch penalty.
func DefaultPolicy() Policy {
	return Policy{
		MismatchPenalty: DefaultMismatchPenalty,
		DurationScale:   DefaultDurationScale,
		NoFilterScore:   DefaultNoFilterScore,
	}
}

func (p Policy) normalized() Policy {
	if math.IsNaN(p.MismatchPenalty) || p.MismatchPenalty < 0 || p.MismatchPenalty > 1 {
		p.MismatchPenalty = DefaultMismatchPenalty
	}
	// Graduation needs a penalty below 1 to keep scores falling with distance.
	if (p.BudgetGraduated || p.SeasonGraduated) && p.MismatchPenalty >= 1 {
		p.MismatchPenalty = DefaultMismatchPenalty
	}
	if math.IsNaN(p.DurationScale) || p.DurationScale <= 0 {
		p.DurationScale = DefaultDurationScale
	}
	if math.IsNaN(p.NoFilterScore) || p.NoFilterScore < 0 || p.NoFilterScore > 1 {
		p.NoFilterScore = DefaultNoFilterScore
	}
	return p
}

// graded maps a categorical distance to a multiplier: 1.0 at distance 0,
// MismatchPenalty at the maximum distance, linear in between.
func (p Policy) graded(distance int) float64 {
	if distance <= 0 {
		return 1.0
	}
	if distance >= maxCategoricalDistance {
		return p.MismatchPenalty
	}
	return 1 - (1-p.MismatchPenalty)*float64(distance)/maxCategoricalDistance
}
