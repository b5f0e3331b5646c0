// Package service wires the catalog, the scoring core and the enrichment
// pipeline together and implements the dependencies of the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/okian/wayfarer/internal/adapters/enrichment"
	"github.com/okian/wayfarer/internal/adapters/facilities"
	"github.com/okian/wayfarer/internal/adapters/mq/kafka"
	"github.com/okian/wayfarer/internal/adapters/mq/queue"
	"github.com/okian/wayfarer/internal/adapters/mq/worker"
	"github.com/okian/wayfarer/internal/adapters/repository"
	"github.com/okian/wayfarer/internal/config"
	"github.com/okian/wayfarer/internal/domain/dedupe"
	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/internal/domain/scoring"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	consumerFailureThreshold = 5
	consumerFailureBackoff   = 15 * time.Second
	consumerStopTimeout      = 10 * time.Second
)

// Enqueue outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
)

// FacilityFinder looks up facilities around a coordinate.
type FacilityFinder interface {
	Nearby(ctx context.Context, q facilities.Query) ([]facilities.Facility, error)
}

// Service implements the API dependencies of the recommendation system.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config

	// Core components
	backend    repository.Catalog
	breaker    *repository.BreakerCatalog
	catalog    repository.Catalog
	aggregator *scoring.Aggregator
	deduper    dedupe.Deduper
	queue      queue.Queue
	pool       *worker.Pool
	consumer   *kafka.Consumer
	facilities FacilityFinder

	// Enrichment collaborators
	content   enrichment.ContentSource
	ratings   enrichment.RatingSource
	generator enrichment.MetadataGenerator

	// State
	started      atomic.Bool
	cancel       context.CancelFunc
	stopConsumer context.CancelFunc
	consumerDone <-chan error

	logger logger.Logger
}

// New constructs a Service from cfg. A nil cfg means config.New().
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts every component.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting recommendation service...")

	// Background work outlives the request that started it but not Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	if err := s.startCatalog(runCtx); err != nil {
		cancel()
		return err
	}

	s.aggregator = scoring.NewAggregator(s.catalog,
		scoring.WithPolicy(scoring.Policy{
			MismatchPenalty: s.cfg.MismatchPenalty,
			DurationScale:   s.cfg.DurationScale,
			BudgetGraduated: s.cfg.BudgetGraduated,
			SeasonGraduated: s.cfg.SeasonGraduated,
			NoFilterScore:   scoring.DefaultNoFilterScore,
		}),
		scoring.WithLogger(s.logger.Named("scoring")),
	)

	s.startEnrichment(runCtx)

	if s.facilities == nil {
		s.facilities = facilities.NewClient(s.cfg.FacilitiesBaseURL,
			facilities.WithHTTPClient(&http.Client{Timeout: s.cfg.HTTPTimeout()}),
			facilities.WithLogger(s.logger.Named("facilities")),
		)
	}

	s.cancel = cancel
	s.started.Store(true)

	// Kafka messages are submitted through Submit, which needs started set.
	if brokers := kafka.SplitBrokers(s.cfg.KafkaBrokers); len(brokers) > 0 {
		s.consumer = kafka.NewConsumer(brokers, s.cfg.EnrichmentTopic, s.cfg.KafkaGroupID, s,
			kafka.WithLogger(s.logger.Named("kafka")))
		consumerCtx, stop := context.WithCancel(runCtx)
		s.stopConsumer = stop
		s.consumerDone = s.superviseConsumer(consumerCtx).ServeBackground(consumerCtx)
	}
	s.logger.Info(ctx, "recommendation service started",
		logger.String("catalog_backend", s.cfg.CatalogBackend),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queue.Capacity()),
		logger.Bool("kafka", s.consumer != nil),
	)
	return nil
}

// superviseConsumer restarts the Kafka consumer with backoff when it fails.
func (s *Service) superviseConsumer(ctx context.Context) *suture.Supervisor {
	sup := suture.New("kafka-consumer", suture.Spec{
		EventHook: func(e suture.Event) {
			metrics.RecordErrorByComponent("kafka", "supervisor_event")
			s.logger.Warn(ctx, "kafka consumer supervisor event", logger.String("event", e.String()))
		},
		FailureThreshold: consumerFailureThreshold,
		FailureBackoff:   consumerFailureBackoff,
		Timeout:          consumerStopTimeout,
	})
	sup.Add(s.consumer)
	return sup
}

// startCatalog opens the backend, seeds it and layers the breaker and the
// cache on top: cache -> breaker -> backend.
func (s *Service) startCatalog(ctx context.Context) error {
	if s.backend == nil {
		switch s.cfg.CatalogBackend {
		case config.BackendMemory, "":
			s.backend = repository.NewMemoryStore(ctx,
				repository.WithStoreLogger(s.logger.Named("catalog")))
		case config.BackendRedis:
			client, err := repository.DialRedis(ctx, s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB)
			if err != nil {
				return err
			}
			s.backend = repository.NewRedisStore(client)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownBackend, s.cfg.CatalogBackend)
		}
	}

	if path := s.cfg.CatalogSeedFile; path != "" {
		records, err := repository.LoadSeed(ctx, path)
		if err != nil {
			return err
		}
		n, err := repository.Seed(ctx, s.backend, records)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "catalog seeded", logger.String("file", path), logger.Int("records", n))
	}

	s.breaker = repository.NewBreakerCatalog(s.backend,
		uint32(s.cfg.BreakerFailureThreshold), s.cfg.BreakerTimeout(), s.logger.Named("breaker"))
	s.catalog = s.breaker
	if s.cfg.CacheSize > 0 && s.cfg.CacheTTL() > 0 {
		s.catalog = repository.NewCachedCatalog(s.breaker, s.cfg.CacheSize, s.cfg.CacheTTL())
	}
	return nil
}

// startEnrichment builds the deduper, queue, enricher and worker pool.
func (s *Service) startEnrichment(ctx context.Context) {
	httpClient := &http.Client{Timeout: s.cfg.HTTPTimeout()}
	if s.content == nil {
		s.content = enrichment.NewContentClient(s.cfg.CoreBaseURL,
			enrichment.WithHTTPClient(httpClient), enrichment.WithClientLogger(s.logger.Named("content")))
	}
	if s.ratings == nil {
		s.ratings = enrichment.NewEngagementClient(s.cfg.CoreBaseURL,
			enrichment.WithHTTPClient(httpClient), enrichment.WithClientLogger(s.logger.Named("engagement")))
	}
	if s.generator == nil {
		s.generator = enrichment.FallbackGenerator{}
		if s.cfg.GeminiAPIKey != "" {
			g, err := enrichment.NewGeminiGenerator(ctx, s.cfg.GeminiAPIKey, s.cfg.GeminiModel)
			if err != nil {
				s.logger.Warn(ctx, "gemini unavailable, using fallback metadata", logger.Error(err))
			} else {
				s.generator = g
			}
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithTTL(s.cfg.DedupeTTL()))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.EnrichmentQueueSize))

	enricher := enrichment.NewEnricher(s.content, s.ratings, s.generator, s.catalog,
		enrichment.WithEnricherLogger(s.logger.Named("enricher")))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, enricher,
		worker.WithForgetter(s.deduper),
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)
}

// Stop stops the Kafka consumer, drains the queue and closes the catalog.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return nil
	}
	s.logger.Info(ctx, "stopping recommendation service...")

	var errs []error
	if s.consumer != nil {
		s.stopConsumer()
		<-s.consumerDone
		if err := s.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka consumer: %w", err))
		}
	}
	s.started.Store(false)
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.cancel()
	if closer, ok := s.backend.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close catalog: %w", err))
		}
	}

	s.logger.Info(ctx, "recommendation service stopped")
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return nil
}

// Recommend scores the candidates and, when enabled, queues enrichment for
// candidate ids the catalog does not know yet.
func (s *Service) Recommend(ctx context.Context, req scoring.Request) (scoring.Result, error) {
	if err := s.ready(); err != nil {
		return scoring.Result{}, err
	}
	res, err := s.aggregator.Score(ctx, req)
	if err != nil {
		return scoring.Result{}, err
	}
	if s.cfg.EnrichOnMiss {
		s.enqueueMisses(ctx, req.CandidateIDs, res.Places)
	}
	return res, nil
}

func (s *Service) enqueueMisses(ctx context.Context, ids []string, scored []scoring.ScoredPlace) {
	known := make(map[string]struct{}, len(scored))
	for _, p := range scored {
		known[p.PlaceID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; ok || strings.TrimSpace(id) == "" {
			continue
		}
		known[id] = struct{}{}
		if _, err := s.Enqueue(ctx, id, queue.SourceMiss); err != nil {
			s.logger.Debug(ctx, "could not queue unknown candidate",
				logger.String("place_id", id), logger.Error(err))
		}
	}
}

// Enqueue queues placeID for enrichment unless it was requested within the
// dedupe window. Backpressure is reported as queue.ErrFull.
func (s *Service) Enqueue(ctx context.Context, placeID, source string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	id := strings.TrimSpace(placeID)
	if id == "" {
		return "", ErrInvalidPlaceID
	}
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordEnrichmentJob("duplicate")
		return OutcomeDuplicate, nil
	}
	if err := s.queue.Enqueue(ctx, queue.NewJob(id, source)); err != nil {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordEnrichmentJob("rejected")
		return "", err
	}
	metrics.RecordEnrichmentJob("enqueued")
	return OutcomeAccepted, nil
}

// Submit implements kafka.Submitter.
func (s *Service) Submit(ctx context.Context, placeID, source string) error {
	_, err := s.Enqueue(ctx, placeID, source)
	return err
}

// Place returns the catalog record of id.
func (s *Service) Place(ctx context.Context, id string) (place.Record, error) {
	if err := s.ready(); err != nil {
		return place.Record{}, err
	}
	return s.catalog.Get(ctx, id)
}

// NearbyFacilities proxies the facilities service.
func (s *Service) NearbyFacilities(ctx context.Context, q facilities.Query) ([]facilities.Facility, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.facilities.Nearby(ctx, q)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started.Load(),
		"catalogBackend": s.cfg.CatalogBackend,
		"enrichOnMiss":   s.cfg.EnrichOnMiss,
	}
	if !s.started.Load() {
		return stats
	}

	ctx := context.Background()
	processed, failed := s.pool.Stats()
	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = s.queue.Len(ctx)
	stats["queueCapacity"] = s.queue.Capacity()
	stats["dedupeSize"] = s.deduper.Size()
	stats["enrichedTotal"] = processed
	stats["enrichFailedTotal"] = failed
	stats["breakerState"] = s.breaker.State()
	stats["kafka"] = s.consumer != nil
	if n, err := s.catalog.Count(ctx); err == nil {
		stats["catalogRecords"] = n
		metrics.UpdateCatalogRecords(n)
	} else {
		stats["catalogError"] = err.Error()
	}
	return stats
}
