package place

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// ParseTravelStyle upper-cases raw and checks it against TravelStyles.
func ParseTravelStyle(raw string) (TravelStyle, error) {
	s := TravelStyle(normalize(raw))
	if !s.Valid() {
		return "", &ValidationError{Field: FieldTravelStyle, Value: raw, Allowed: names(TravelStyles)}
	}
	return s, nil
}

// ParseBudgetLevel upper-cases raw and checks it against BudgetLevels.
func ParseBudgetLevel(raw string) (BudgetLevel, error) {
	b := BudgetLevel(normalize(raw))
	if !b.Valid() {
		return "", &ValidationError{Field: FieldBudgetLevel, Value: raw, Allowed: names(BudgetLevels)}
	}
	return b, nil
}

// ParseSeason upper-cases raw and checks it against Seasons.
func ParseSeason(raw string) (Season, error) {
	s := Season(normalize(raw))
	if !s.Valid() {
		return "", &ValidationError{Field: FieldSeason, Value: raw, Allowed: names(Seasons)}
	}
	return s, nil
}

// ParseDuration accepts a JSON number or a numeric string and returns a
// finite, non-negative number of days.
func ParseDuration(raw any) (float64, error) {
	var (
		d   float64
		err error
	)
	switch v := raw.(type) {
	case float64:
		d = v
	case float32:
		d = float64(v)
	case int:
		d = float64(v)
	case int64:
		d = float64(v)
	case json.Number:
		d, err = v.Float64()
	case string:
		d, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		err = fmt.Errorf("unsupported type %T", raw)
	}
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, &ValidationError{Field: FieldTripDuration, Value: fmt.Sprint(raw)}
	}
	return d, nil
}
