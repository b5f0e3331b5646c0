package repository

import (
	"time"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithRecords preloads the store. Invalid records are skipped and logged.
func WithRecords(records []place.Record) Option {
	return func(s *MemoryStore) {
		s.preload = append(s.preload, records...)
	}
}

// WithStoreLogger sets a custom logger for the store.
func WithStoreLogger(l logger.Logger) Option {
	return func(s *MemoryStore) {
		if l != nil {
			s.logger = l
		}
	}
}
