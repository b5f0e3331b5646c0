package enrichment

import (
	"math"
	"strings"

	"github.com/okian/wayfarer/internal/domain/place"
)

const (
	neutralSuitability = 0.5
	defaultDurationDay = 1.0
	fallbackTag        = "tourist attraction"
	fallbackReasoning  = "A point of interest worth a visit."
)

// Metadata is the AI generated description of a place.
type Metadata struct {
	Tags         []string          `json:"ai_tags"`
	Reasoning    string            `json:"ai_reasoning_base"`
	DurationDays *float64          `json:"duration_days,omitempty"`
	Suitability  SuitabilityScores `json:"ai_suitability_scores"`
}

// SuitabilityScores holds raw per-value scores keyed by upper-case names as
// the model returns them.
type SuitabilityScores struct {
	TravelStyle map[string]float64 `json:"travel_style"`
	BudgetLevel map[string]float64 `json:"budget_level"`
	Season      map[string]float64 `json:"season"`
}

// FallbackMetadata is used when generation is disabled or fails: every value
// scores 0.5.
func FallbackMetadata() Metadata {
	s := SuitabilityScores{
		TravelStyle: map[string]float64{},
		BudgetLevel: map[string]float64{},
		Season:      map[string]float64{},
	}
	for _, v := range place.TravelStyles {
		s.TravelStyle[string(v)] = neutralSuitability
	}
	for _, v := range place.BudgetLevels {
		s.BudgetLevel[string(v)] = neutralSuitability
	}
	for _, v := range place.Seasons {
		s.Season[string(v)] = neutralSuitability
	}
	return Metadata{
		Tags:        []string{fallbackTag},
		Reasoning:   fallbackReasoning,
		Suitability: s,
	}
}

// seasonAliases maps alternative season names to the enumeration.
var seasonAliases = map[string]place.Season{
	"AUTUMN": place.SeasonFall,
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// normalizeScores keeps only members of values, upper-cases keys, applies
// aliases and clamps scores into [0,1]. A canonical key beats its aliases.
func normalizeScores[T ~string](raw map[string]float64, values []T, aliases map[string]T) map[T]float64 {
	present := make(map[string]bool, len(raw))
	for k := range raw {
		present[strings.ToUpper(strings.TrimSpace(k))] = true
	}
	out := make(map[T]float64, len(values))
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		member := T(key)
		if alias, ok := aliases[key]; ok {
			if present[string(alias)] {
				continue
			}
			member = alias
		}
		for _, candidate := range values {
			if candidate == member {
				out[member] = clamp01(v)
				break
			}
		}
	}
	return out
}

// argmax returns the highest-scoring value, resolving ties by enumeration
// order. Values without a score count as 0.
func argmax[T comparable](scores map[T]float64, values []T) T {
	best := values[0]
	bestScore := math.Inf(-1)
	for _, v := range values {
		if s := scores[v]; s > bestScore {
			best, bestScore = v, s
		}
	}
	return best
}

// suitability converts model output into the record's typed scores.
func (m Metadata) suitability() place.Suitability {
	return place.Suitability{
		TravelStyle: normalizeScores[place.TravelStyle](m.Suitability.TravelStyle, place.TravelStyles, nil),
		BudgetLevel: normalizeScores[place.BudgetLevel](m.Suitability.BudgetLevel, place.BudgetLevels, nil),
		Season:      normalizeScores(m.Suitability.Season, place.Seasons, seasonAliases),
	}
}

// durationDays returns the suggested visit length, defaulting to one day.
func (m Metadata) durationDays() float64 {
	if m.DurationDays == nil {
		return defaultDurationDay
	}
	d := *m.DurationDays
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return defaultDurationDay
	}
	return d
}
