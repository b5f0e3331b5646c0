// Package loadtest drives a running recommendation service with concurrent
// traffic and checks that every response is well formed.
package loadtest

import "time"

// Config holds configuration for a load test run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Number of recommendation requests to send
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	PlaceIDs []string      // Candidate pool requests draw from
	Seed     uint64        // Random seed; 0 picks one from the clock
	Verbose  bool          // Log every failed request

	// EnrichIDs are queued for enrichment before the run, over HTTP or,
	// when KafkaBrokers is set, by publishing to KafkaTopic.
	EnrichIDs    []string
	KafkaBrokers []string
	KafkaTopic   string
}

// RecommendRequest is the body of a recommendation request.
type RecommendRequest struct {
	CandidatePlace []string `json:"candidate_place"`
	TravelStyle    *string  `json:"Travel_style,omitempty"`
	BudgetLevel    *string  `json:"Budget_level,omitempty"`
	Season         *string  `json:"Season,omitempty"`
	TripDuration   any      `json:"Trip_duration,omitempty"`
}

// ScoredPlace is one ranked entry in a response.
type ScoredPlace struct {
	PlaceID string  `json:"place_id"`
	Score   float64 `json:"score"`
}

// RecommendResponse is the body of a successful recommendation.
type RecommendResponse struct {
	ScoredPlaces []ScoredPlace `json:"scored_places"`
	Message      string        `json:"message,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Sent       int
	Succeeded  int
	Rejected   int // 4xx
	Failed     int // transport errors and 5xx
	Invalid    int // 200 responses that broke a ranking invariant
	Enqueued   int
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	StartTime  time.Time
	Duration   time.Duration
	Throughput float64 // requests per second
}
