package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

// BreakerCatalog trips after consecutive backend failures and then fails fast
// with ErrUnavailable until the open timeout elapses.
type BreakerCatalog struct {
	next Catalog
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerCatalog guards next with a circuit breaker that opens after
// threshold consecutive failures and probes again after timeout.
func NewBreakerCatalog(next Catalog, threshold uint32, timeout time.Duration, log logger.Logger) *BreakerCatalog {
	if threshold == 0 {
		threshold = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidRecord) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateCatalogBreakerState(stateValue(to))
			log.Warn(context.Background(), "catalog breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &BreakerCatalog{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *BreakerCatalog) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// Lookup implements Catalog.Lookup.
func (b *BreakerCatalog) Lookup(ctx context.Context, ids []string) ([]place.Record, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Lookup(ctx, ids)
	})
	if err != nil {
		return nil, b.wrap(err)
	}
	recs, _ := v.([]place.Record)
	return recs, nil
}

// Get implements Catalog.Get.
func (b *BreakerCatalog) Get(ctx context.Context, id string) (place.Record, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx, id)
	})
	if err != nil {
		return place.Record{}, b.wrap(err)
	}
	rec, _ := v.(place.Record)
	return rec, nil
}

// Put implements Catalog.Put.
func (b *BreakerCatalog) Put(ctx context.Context, rec place.Record) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Put(ctx, rec)
	})
	return b.wrap(err)
}

// Count implements Catalog.Count.
func (b *BreakerCatalog) Count(ctx context.Context) (int, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Count(ctx)
	})
	if err != nil {
		return 0, b.wrap(err)
	}
	n, _ := v.(int)
	return n, nil
}

// State reports the breaker state as closed, half-open or open.
func (b *BreakerCatalog) State() string {
	return b.cb.State().String()
}
