package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/wayfarer/internal/adapters/mq/queue"
	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultJobTimeout       = 2 * time.Minute
	poolShutdownTimeout     = 30 * time.Second
)

// Enricher builds and stores the record for one place.
type Enricher interface {
	Enrich(ctx context.Context, placeID string) (place.Record, error)
}

// Forgetter drops a place id from the dedupe window.
type Forgetter interface {
	Unrecord(ctx context.Context, id string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes enrichment jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue      Queue
	enricher   Enricher
	forgetter  Forgetter
	name       string
	jobTimeout time.Duration

	processed *atomic.Int64
	failed    *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, enricher Enricher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		enricher:   enricher,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		processed:  &atomic.Int64{},
		failed:     &atomic.Int64{},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "enrichment failed",
					logger.String("job_id", job.ID),
					logger.String("place_id", job.PlaceID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of jobs this worker finished successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns the number of jobs this worker gave up on.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	metrics.UpdateQueueSize(len(w.queue.Dequeue(ctx)))

	jobCtx, cancel := context.WithTimeout(logger.WithRequestID(ctx, job.ID), w.jobTimeout)
	defer cancel()

	if _, err := w.enricher.Enrich(jobCtx, job.PlaceID); err != nil {
		w.failed.Add(1)
		metrics.RecordEnrichmentJob("failed")
		metrics.RecordErrorByComponent("worker", "enrichment_error")
		if w.forgetter != nil {
			w.forgetter.Unrecord(ctx, job.PlaceID)
		}
		return fmt.Errorf("enrich %s: %w", job.PlaceID, err)
	}

	w.processed.Add(1)
	metrics.RecordEnrichmentJob("succeeded")
	w.logger.Debug(jobCtx, "job done",
		logger.String("place_id", job.PlaceID),
		logger.String("source", job.Source),
		logger.Int("wait_ms", int(time.Since(job.EnqueuedAt).Milliseconds())),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing the queue. A
// non-positive count means twice the number of CPUs.
func NewPool(workerCount int, q Queue, enricher Enricher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, enricher, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats sums processed and failed job counts across workers.
func (p *Pool) Stats() (processed, failed int64) {
	for _, w := range p.workers {
		processed += w.Processed()
		failed += w.Failed()
	}
	return processed, failed
}

// Shutdown closes the queue and lets the workers drain it, waiting at most
// until ctx (capped at 30s) expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
