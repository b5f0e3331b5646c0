package enrichment

import (
	"errors"
	"fmt"
)

// Sentinel kinds for enrichment errors.
var (
	// ErrUpstream reports an upstream HTTP service failure.
	ErrUpstream = errors.New("upstream request failed")
	// ErrGeneration reports a failed or unusable AI generation.
	ErrGeneration = errors.New("metadata generation failed")
)

// statusError carries the HTTP status of a failed upstream response.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.status, e.url)
}

func (e *statusError) Is(target error) bool { return target == ErrUpstream }
