// Package repository holds the place catalog: its interface, an in-memory and
// a Redis store, a read-through cache and a circuit breaker guard.
package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/wayfarer/internal/domain/place"
)

// Catalog provides read/write access to place records.
type Catalog interface {
	// Lookup returns the records for the ids that exist. Unknown ids are
	// skipped, so the result may be shorter than ids and in any order.
	Lookup(ctx context.Context, ids []string) ([]place.Record, error)

	// Get returns a single record or ErrNotFound.
	Get(ctx context.Context, id string) (place.Record, error)

	// Put validates and stores rec, replacing any record with the same id.
	Put(ctx context.Context, rec place.Record) error

	// Count returns the number of records in the catalog.
	Count(ctx context.Context) (int, error)
}

// ValidateRecord enforces the write-time invariants: a non-empty id, every
// enumerated field within its set and a finite non-negative duration.
func ValidateRecord(rec place.Record) error {
	switch {
	case rec.PlaceID == "":
		return fmt.Errorf("%w: empty place_id", ErrInvalidRecord)
	case !rec.TravelStyle.Valid():
		return fmt.Errorf("%w: %s: travel_style %q", ErrInvalidRecord, rec.PlaceID, rec.TravelStyle)
	case !rec.BudgetLevel.Valid():
		return fmt.Errorf("%w: %s: budget_level %q", ErrInvalidRecord, rec.PlaceID, rec.BudgetLevel)
	case !rec.Season.Valid():
		return fmt.Errorf("%w: %s: season %q", ErrInvalidRecord, rec.PlaceID, rec.Season)
	case math.IsNaN(rec.Duration) || math.IsInf(rec.Duration, 0) || rec.Duration < 0:
		return fmt.Errorf("%w: %s: duration %v", ErrInvalidRecord, rec.PlaceID, rec.Duration)
	}
	return nil
}
