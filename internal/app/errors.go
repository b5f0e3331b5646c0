package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotStarted reports a call before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidPlaceID reports a blank place id.
	ErrInvalidPlaceID = errors.New("invalid place id")
	// ErrUnknownBackend reports an unsupported catalog backend.
	ErrUnknownBackend = errors.New("unknown catalog backend")
)
