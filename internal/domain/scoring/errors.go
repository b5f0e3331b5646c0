package scoring

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrCatalogUnavailable wraps any failure of the catalog lookup.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrScoringInvariant reports a scorer that broke its contract.
	ErrScoringInvariant = errors.New("scoring invariant violated")
)
