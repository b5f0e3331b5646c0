package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/okian/wayfarer/internal/adapters/mq/kafka"
	"github.com/okian/wayfarer/pkg/logger"
)

const percentile = 100

type outcome struct {
	latency time.Duration
	status  int
	err     error
}

// Run executes a load test against cfg.BaseURL and returns its statistics.
// Invalid responses are counted, not returned as an error.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadtest")
	if len(cfg.PlaceIDs) == 0 {
		return nil, ErrNoPlaces
	}
	workers := max(cfg.Workers, 1)
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	log.Info(ctx, "starting load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", workers),
		logger.Int("places", len(cfg.PlaceIDs)))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	stats := &Stats{StartTime: time.Now()}
	enqueued, err := requestEnrichment(ctx, cfg, client)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	stats.Enqueued = enqueued

	gen := NewGenerator(seed, cfg.PlaceIDs)
	reqs := make(chan RecommendRequest, workers*2)
	results := make(chan outcome, workers*2)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range reqs {
				results <- sendOne(ctx, client, req)
			}
		}()
	}
	go func() {
		defer close(reqs)
		for range cfg.Requests {
			select {
			case <-ctx.Done():
				return
			case reqs <- gen.Next():
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	latencies := make([]time.Duration, 0, cfg.Requests)
	for o := range results {
		stats.Sent++
		latencies = append(latencies, o.latency)
		switch {
		case o.err != nil && o.status == http.StatusOK:
			stats.Invalid++
			if cfg.Verbose {
				log.Warn(ctx, "invalid response", logger.Error(o.err))
			}
		case o.err != nil || o.status >= http.StatusInternalServerError:
			stats.Failed++
			if cfg.Verbose {
				log.Warn(ctx, "request failed", logger.Int("status", o.status), logger.Error(o.err))
			}
		case o.status >= http.StatusBadRequest:
			stats.Rejected++
		default:
			stats.Succeeded++
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	if stats.Duration > 0 {
		stats.Throughput = float64(stats.Sent) / stats.Duration.Seconds()
	}
	slices.Sort(latencies)
	stats.P50 = quantile(latencies, 50)
	stats.P95 = quantile(latencies, 95)
	stats.P99 = quantile(latencies, 99)

	displayFinalStats(ctx, log, stats)
	return stats, ctx.Err()
}

func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, err := client.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// requestEnrichment queues cfg.EnrichIDs and reports how many were handed
// over.
func requestEnrichment(ctx context.Context, cfg *Config, client *HTTPClient) (int, error) {
	if len(cfg.EnrichIDs) == 0 {
		return 0, nil
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		if err := pub.Publish(ctx, cfg.EnrichIDs...); err != nil {
			return 0, err
		}
		return len(cfg.EnrichIDs), nil
	}

	var resp struct {
		Accepted []string `json:"accepted"`
	}
	status, err := client.postJSON(ctx, "/api/enrich", map[string][]string{"place_ids": cfg.EnrichIDs}, &resp)
	if err != nil {
		return 0, err
	}
	if status != http.StatusAccepted {
		return 0, fmt.Errorf("enrich returned status %d", status)
	}
	return len(resp.Accepted), nil
}

func sendOne(ctx context.Context, client *HTTPClient, req RecommendRequest) outcome {
	start := time.Now()
	var resp RecommendResponse
	status, err := client.postJSON(ctx, "/api/recommend-places", req, &resp)
	o := outcome{latency: time.Since(start), status: status, err: err}
	if err == nil && status == http.StatusOK {
		o.err = Verify(req, resp)
	}
	return o
}

// quantile returns the q-th percentile of sorted.
func quantile(sorted []time.Duration, q int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*q + percentile - 1) / percentile
	return sorted[max(idx-1, 0)]
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("sent", stats.Sent),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("invalid", stats.Invalid),
		logger.Int("enqueued", stats.Enqueued),
		logger.String("p50", stats.P50.String()),
		logger.String("p95", stats.P95.String()),
		logger.String("p99", stats.P99.String()),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", stats.Throughput))
}
