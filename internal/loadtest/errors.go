package loadtest

import "errors"

var (
	ErrUnhealthy       = errors.New("service is not healthy")
	ErrInvalidResponse = errors.New("invalid recommendation response")
	ErrNoPlaces        = errors.New("no place ids to draw candidates from")
)
