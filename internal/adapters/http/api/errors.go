package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrBackpressure     = errors.New("enrichment queue is full")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error codes returned in the "code" field of error bodies.
const (
	codeBadRequest       = "bad_request"
	codeInvalidFilter    = "invalid_filter"
	codeNotFound         = "not_found"
	codeBackpressure     = "backpressure"
	codeMethodNotAllowed = "method_not_allowed"
	codeUpstream         = "upstream_error"
	codeInternal         = "internal_error"
)
