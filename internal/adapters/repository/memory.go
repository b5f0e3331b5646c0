package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const backendMemory = "memory"

// MemoryStore is an in-memory Catalog guarded by a RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]place.Record

	metricsUpdateInterval time.Duration
	preload               []place.Record
	logger                logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an in-memory store. Background metric updates
// stop when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]place.Record),
		metricsUpdateInterval: 5 * time.Second,
		logger:                logger.Get().Named("catalog"),
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	for _, rec := range s.preload {
		if err := s.Put(ctx, rec); err != nil {
			s.logger.Warn(ctx, "skipping invalid record", logger.Error(err))
		}
	}
	s.preload = nil

	s.startMetricsUpdater(ctx)
	return s
}

// Lookup implements Catalog.Lookup.
func (s *MemoryStore) Lookup(_ context.Context, ids []string) ([]place.Record, error) {
	start := time.Now()
	s.mu.RLock()
	out := make([]place.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.byID[id]; ok {
			out = append(out, clone(rec))
		}
	}
	s.mu.RUnlock()
	metrics.RecordCatalogLookupLatency(backendMemory, float64(time.Since(start).Microseconds())/1000)
	return out, nil
}

// Get implements Catalog.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (place.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return place.Record{}, ErrNotFound
	}
	return clone(rec), nil
}

// Put implements Catalog.Put.
func (s *MemoryStore) Put(_ context.Context, rec place.Record) error {
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.byID[rec.PlaceID] = clone(rec)
	s.mu.Unlock()
	return nil
}

// Count implements Catalog.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		s.updateMetrics()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	n := len(s.byID)
	s.mu.RUnlock()
	metrics.UpdateCatalogRecords(n)
}

// clone copies the slice and map fields so callers cannot alias stored state.
func clone(rec place.Record) place.Record {
	if rec.Tags != nil {
		rec.Tags = append([]string(nil), rec.Tags...)
	}
	rec.Suitability = place.Suitability{
		TravelStyle: cloneMap(rec.Suitability.TravelStyle),
		BudgetLevel: cloneMap(rec.Suitability.BudgetLevel),
		Season:      cloneMap(rec.Suitability.Season),
	}
	return rec
}

func cloneMap[K comparable](m map[K]float64) map[K]float64 {
	if m == nil {
		return nil
	}
	out := make(map[K]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
