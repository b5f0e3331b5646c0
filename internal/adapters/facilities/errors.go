package facilities

import "errors"

// Sentinel kinds for facilities errors.
var (
	// ErrUpstream reports that the facilities service could not be queried.
	ErrUpstream = errors.New("facilities service unavailable")
	// ErrInvalidQuery reports a nearby query with out-of-range parameters.
	ErrInvalidQuery = errors.New("invalid facilities query")
)
