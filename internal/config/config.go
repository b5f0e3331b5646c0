// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat koanf keys; the same key names are used in YAML files and, upper-cased
//   with the WAYFARER_ prefix, in the environment.
// - New returns a Config holding every default.
// - Validate must pass before a Config is handed to the application.
package config

import (
	"runtime"
	"strings"
	"time"
)

// Catalog backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// RateLimitRPS caps requests per second per client IP on /api routes. 0 disables.
	RateLimitRPS int `koanf:"rate_limit_rps" validate:"gte=0"`

	// CORSAllowedOrigins is a comma separated origin list for browser clients
	// of /api routes; "*" allows any origin. Empty disables CORS headers.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// CatalogBackend selects the place store: memory or redis.
	CatalogBackend string `koanf:"catalog_backend" validate:"oneof=memory redis"`

	// CatalogSeedFile is an optional YAML file of place records loaded at startup.
	CatalogSeedFile string `koanf:"catalog_seed_file"`

	// Redis connection, used when CatalogBackend is redis.
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=CatalogBackend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	// CacheSize bounds the catalog read cache. 0 disables the cache.
	CacheSize       int `koanf:"cache_size" validate:"gte=0"`
	CacheTTLSeconds int `koanf:"cache_ttl_seconds" validate:"gte=0"`

	// Catalog circuit breaker.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold" validate:"gte=1"`
	BreakerTimeoutSeconds   int `koanf:"breaker_timeout_seconds" validate:"gte=1"`

	// Scoring policy.
	MismatchPenalty float64 `koanf:"mismatch_penalty" validate:"gte=0,lte=1"`
	DurationScale   float64 `koanf:"duration_scale" validate:"gt=0"`
	BudgetGraduated bool    `koanf:"budget_graduated"`
	SeasonGraduated bool    `koanf:"season_graduated"`

	// CoreBaseURL is the base URL of the content and engagement services.
	CoreBaseURL        string `koanf:"core_base_url" validate:"omitempty,url"`
	HTTPTimeoutSeconds int    `koanf:"http_timeout_seconds" validate:"gte=1"`

	// Gemini metadata generation. An empty key disables generation.
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model" validate:"required"`

	// EnrichmentQueueSize bounds the in-memory enrichment queue.
	EnrichmentQueueSize int `koanf:"queue_size" validate:"gte=1"`

	// WorkerCount sets the number of enrichment workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// DedupeTTLSeconds suppresses repeated enrichment requests for the same place.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds" validate:"gte=0"`

	// EnrichOnMiss queues enrichment for candidate ids the catalog does not know.
	EnrichOnMiss bool `koanf:"enrich_on_miss"`

	// Kafka enrichment stream. Empty brokers disables the consumer.
	KafkaBrokers    string `koanf:"kafka_brokers"`
	EnrichmentTopic string `koanf:"enrichment_topic" validate:"required_with=KafkaBrokers"`
	KafkaGroupID    string `koanf:"kafka_group_id" validate:"required_with=KafkaBrokers"`

	// FacilitiesBaseURL is the base URL of the nearby facilities service.
	FacilitiesBaseURL string `koanf:"facilities_base_url" validate:"omitempty,url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		RateLimitRPS:            100,
		CatalogBackend:          BackendMemory,
		RedisAddr:               "localhost:6379",
		CacheSize:               10_000,
		CacheTTLSeconds:         60,
		BreakerFailureThreshold: 5,
		BreakerTimeoutSeconds:   30,
		MismatchPenalty:         0.5,
		DurationScale:           1.0,
		CoreBaseURL:             "http://localhost:8000",
		HTTPTimeoutSeconds:      10,
		GeminiModel:             "gemini-2.5-flash",
		EnrichmentQueueSize:     10_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeTTLSeconds:        600,
		EnrichOnMiss:            true,
		EnrichmentTopic:         "place-enrichment",
		KafkaGroupID:            "wayfarer-enricher",
		FacilitiesBaseURL:       "http://localhost:8000",
	}
}

// CORSOrigins splits CORSAllowedOrigins into trimmed, non-empty entries.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CacheTTL returns the catalog cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// BreakerTimeout returns how long the breaker stays open before probing.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout of upstream HTTP clients.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// DedupeTTL returns the enrichment dedupe window.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.DedupeTTLSeconds) * time.Second
}
