package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrFull reports that the queue is at capacity.
	ErrFull = errors.New("queue full")
	// ErrClosed reports an enqueue after Close.
	ErrClosed = errors.New("queue closed")
)
