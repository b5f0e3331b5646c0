// Package worker drains the enrichment queue with a pool of workers.
package worker

import (
	"time"

	"github.com/okian/wayfarer/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithJobTimeout bounds how long a single enrichment may take.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithForgetter releases a place id after a failed enrichment so a later
// request can retry it.
func WithForgetter(f Forgetter) Option {
	return func(w *InMemoryWorker) {
		w.forgetter = f
	}
}
