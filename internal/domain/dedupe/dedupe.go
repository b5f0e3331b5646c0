// Package dedupe suppresses repeated enrichment requests for the same place
// within a time window.
package dedupe

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	defaultMaxSize = 100_000
	defaultTTL     = 10 * time.Minute
)

// Deduper records seen place IDs to ensure at-most-once enrichment per window.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// Used when an id was recorded but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// ttlDeduper implements Deduper on a bounded otter cache whose entries
// expire a fixed time after they are written.
type ttlDeduper struct {
	cache   *otter.Cache[string, struct{}]
	maxSize int
	ttl     time.Duration
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ttlDeduper{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
	}

	for _, opt := range opts {
		opt(d)
	}

	o := &otter.Options[string, struct{}]{
		MaximumSize:     d.maxSize,
		InitialCapacity: min(d.maxSize, 1024),
	}
	if d.ttl > 0 {
		o.ExpiryCalculator = otter.ExpiryWriting[string, struct{}](d.ttl)
	}
	d.cache = otter.Must(o)
	return d
}

// SeenAndRecord reports whether id was recorded within the window and
// records it otherwise.
func (d *ttlDeduper) SeenAndRecord(_ context.Context, id string) bool {
	_, inserted := d.cache.SetIfAbsent(id, struct{}{})
	return !inserted
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *ttlDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Invalidate(id)
}

// Size returns the approximate number of ids currently recorded.
func (d *ttlDeduper) Size() int64 {
	return int64(d.cache.EstimatedSize())
}
