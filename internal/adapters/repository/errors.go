package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound      = errors.New("place not found")
	ErrInvalidRecord = errors.New("invalid place record")
	ErrUnavailable   = errors.New("catalog unavailable")
	ErrSeed          = errors.New("load catalog seed failed")
)
