// Command loadtest drives a running wayfarer service with randomized
// recommendation traffic and reports latency and correctness statistics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/wayfarer/internal/adapters/mq/kafka"
	"github.com/okian/wayfarer/internal/loadtest"
	"github.com/okian/wayfarer/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests    = 10000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
	defaultPlaces      = "isfahan-naqsh-e-jahan,tehran-milad,kish-island"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests = flag.Int("requests", defaultRequests, "Number of recommendation requests to send")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		places   = flag.String("places", defaultPlaces, "Comma separated place ids to draw candidates from")
		enrich   = flag.String("enrich", "", "Comma separated place ids to queue for enrichment first")
		brokers  = flag.String("kafka-brokers", "", "Publish enrichment requests to these Kafka brokers instead of HTTP")
		topic    = flag.String("kafka-topic", "place-enrichment", "Kafka topic for enrichment requests")
		seed     = flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
		verbose  = flag.Bool("verbose", false, "Log every failed request")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	cfg := &loadtest.Config{
		BaseURL:      strings.TrimRight(*baseURL, "/"),
		Requests:     *requests,
		Workers:      *workers,
		Timeout:      *timeout,
		PlaceIDs:     splitList(*places),
		Seed:         *seed,
		Verbose:      *verbose,
		EnrichIDs:    splitList(*enrich),
		KafkaBrokers: kafka.SplitBrokers(*brokers),
		KafkaTopic:   *topic,
	}

	stats, err := loadtest.Run(ctx, cfg)
	if err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
	if stats.Invalid > 0 || stats.Failed > 0 {
		os.Exit(2)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
