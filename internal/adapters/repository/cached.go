package repository

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/metrics"
)

// CachedCatalog is a read-through cache in front of another Catalog. Writes go
// to the backend first and then refresh the cached copy.
type CachedCatalog struct {
	next  Catalog
	cache *otter.Cache[string, place.Record]
}

// NewCachedCatalog caches up to size records for ttl after they are written.
func NewCachedCatalog(next Catalog, size int, ttl time.Duration) *CachedCatalog {
	o := &otter.Options[string, place.Record]{
		MaximumSize:     size,
		InitialCapacity: min(size, 1024),
	}
	if ttl > 0 {
		o.ExpiryCalculator = otter.ExpiryWriting[string, place.Record](ttl)
	}
	return &CachedCatalog{next: next, cache: otter.Must(o)}
}

// Lookup serves cached ids and asks the backend only for the rest.
func (c *CachedCatalog) Lookup(ctx context.Context, ids []string) ([]place.Record, error) {
	out := make([]place.Record, 0, len(ids))
	var misses []string
	for _, id := range ids {
		if rec, ok := c.cache.GetIfPresent(id); ok {
			metrics.RecordCatalogCache("hit")
			out = append(out, clone(rec))
			continue
		}
		metrics.RecordCatalogCache("miss")
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.next.Lookup(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, rec := range fetched {
		c.cache.Set(rec.PlaceID, clone(rec))
		out = append(out, rec)
	}
	return out, nil
}

// Get implements Catalog.Get.
func (c *CachedCatalog) Get(ctx context.Context, id string) (place.Record, error) {
	if rec, ok := c.cache.GetIfPresent(id); ok {
		metrics.RecordCatalogCache("hit")
		return clone(rec), nil
	}
	metrics.RecordCatalogCache("miss")
	rec, err := c.next.Get(ctx, id)
	if err != nil {
		return place.Record{}, err
	}
	c.cache.Set(id, clone(rec))
	return rec, nil
}

// Put implements Catalog.Put.
func (c *CachedCatalog) Put(ctx context.Context, rec place.Record) error {
	if err := c.next.Put(ctx, rec); err != nil {
		c.cache.Invalidate(rec.PlaceID)
		return err
	}
	c.cache.Set(rec.PlaceID, clone(rec))
	return nil
}

// Count implements Catalog.Count.
func (c *CachedCatalog) Count(ctx context.Context) (int, error) {
	return c.next.Count(ctx)
}

// Invalidate drops a cached record.
func (c *CachedCatalog) Invalidate(id string) {
	c.cache.Invalidate(id)
}
