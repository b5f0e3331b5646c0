// Package api serves the recommendation HTTP API.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/wayfarer/internal/adapters/facilities"
	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/internal/domain/scoring"
	"github.com/okian/wayfarer/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Recommend scores candidate places.
	Recommend(ctx context.Context, req scoring.Request) (scoring.Result, error)

	// Enqueue requests enrichment of one place and returns "accepted" or
	// "duplicate". Backpressure is reported as queue.ErrFull.
	Enqueue(ctx context.Context, placeID, source string) (string, error)

	// Place returns one catalog record.
	Place(ctx context.Context, id string) (place.Record, error)

	// NearbyFacilities lists facilities around a coordinate.
	NearbyFacilities(ctx context.Context, q facilities.Query) ([]facilities.Facility, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	recommendHandler  *RecommendHandler
	enrichHandler     *EnrichHandler
	placeHandler      *PlaceHandler
	facilitiesHandler *FacilitiesHandler

	rateLimitRPS int
	corsOrigins  []string
	logger       logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRateLimit limits /api/ requests per client IP per second; 0 disables.
func WithRateLimit(rps int) ServerOption {
	return func(s *Server) {
		if rps >= 0 {
			s.rateLimitRPS = rps
		}
	}
}

// WithCORS answers cross-origin requests to /api/ routes from origins.
func WithCORS(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		logger: logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.recommendHandler = NewRecommendHandler(deps, s.logger)
	s.enrichHandler = NewEnrichHandler(deps, s.logger)
	s.placeHandler = NewPlaceHandler(deps, s.logger)
	s.facilitiesHandler = NewFacilitiesHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	api := func(endpoint string, h http.HandlerFunc) http.Handler {
		return CORSMiddleware(s.corsOrigins,
			RequestIDMiddleware(RateLimitMiddleware(s.rateLimitRPS, MetricsMiddleware(h, endpoint))))
	}
	recommend := api("recommend", s.recommendHandler.HandleRecommend)
	mux.Handle("/api/recommend-places", recommend)
	mux.Handle("/team12/api/recommend-places/{$}", recommend)
	mux.Handle("/api/enrich", api("enrich", s.enrichHandler.HandleEnrich))
	mux.Handle("/api/places/", api("places", s.placeHandler.HandleGetPlace))
	mux.Handle("/api/facilities/nearby", api("facilities", s.facilitiesHandler.HandleNearby))
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Field   string   `json:"field,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// decodeObject reads exactly one JSON object from the request body into v.
// Non-object values and trailing data are rejected.
func decodeObject(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return fmt.Errorf("%w: body must be a JSON object", ErrBadRequest)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeInternal logs err and answers 500 without exposing details.
func writeInternal(ctx context.Context, w http.ResponseWriter, log logger.Logger, msg string, err error) {
	log.Error(ctx, msg, logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal server error",
		Code:  codeInternal,
	})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
	return false
}
