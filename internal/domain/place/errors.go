package place

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is matched by every ValidationError.
var ErrInvalidFilter = errors.New("invalid filter")

// Request field names as they appear on the wire.
const (
	FieldTravelStyle  = "Travel_style"
	FieldBudgetLevel  = "Budget_level"
	FieldSeason       = "Season"
	FieldTripDuration = "Trip_duration"
)

// ValidationError names the offending request field and, for enumerations,
// the accepted values.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid %s %q: allowed values are %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("invalid %s %q: must be a non-negative number", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidFilter) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidFilter
}
