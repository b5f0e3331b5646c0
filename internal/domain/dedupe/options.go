package dedupe

import "time"

// Option applies a configuration option to the deduper.
type Option func(*ttlDeduper)

// WithMaxSize bounds the number of remembered IDs. Values <= 0 keep the default.
func WithMaxSize(maxSize int) Option {
	return func(d *ttlDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}

// WithTTL sets how long an ID stays recorded. 0 keeps IDs until evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(d *ttlDeduper) {
		if ttl >= 0 {
			d.ttl = ttl
		}
	}
}
