package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

// ContentSource returns wiki content for a place.
type ContentSource interface {
	FetchContent(ctx context.Context, placeID string) (Content, error)
}

// RatingSource returns the average user rating of a place.
type RatingSource interface {
	FetchRating(ctx context.Context, placeID string) (float64, error)
}

// RecordWriter stores enriched records.
type RecordWriter interface {
	Put(ctx context.Context, rec place.Record) error
}

// Enricher builds a place record from every source and writes it to the
// catalog. Source failures degrade to defaults instead of failing the place.
type Enricher struct {
	content   ContentSource
	ratings   RatingSource
	generator MetadataGenerator
	catalog   RecordWriter
	logger    logger.Logger
	now       func() time.Time
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnricherLogger sets a custom logger.
func WithEnricherLogger(l logger.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used for EnrichedAt.
func WithClock(now func() time.Time) EnricherOption {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnricher wires the sources. A nil generator means FallbackGenerator.
func NewEnricher(content ContentSource, ratings RatingSource, generator MetadataGenerator, catalog RecordWriter, opts ...EnricherOption) *Enricher {
	if generator == nil {
		generator = FallbackGenerator{}
	}
	e := &Enricher{
		content:   content,
		ratings:   ratings,
		generator: generator,
		catalog:   catalog,
		logger:    logger.Get().Named("enricher"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches, generates and stores the record for placeID.
func (e *Enricher) Enrich(ctx context.Context, placeID string) (place.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordEnrichmentLatency(float64(time.Since(start).Milliseconds()))
	}()

	if strings.TrimSpace(placeID) == "" {
		return place.Record{}, errors.New("empty place id")
	}

	content, err := e.content.FetchContent(ctx, placeID)
	if err != nil {
		e.logger.Warn(ctx, "content unavailable, continuing without summary",
			logger.String("place_id", placeID), logger.Error(err))
		content = Content{}
	}

	rating, err := e.ratings.FetchRating(ctx, placeID)
	if err != nil {
		e.logger.Warn(ctx, "engagement unavailable, using default rating",
			logger.String("place_id", placeID), logger.Error(err))
		rating = DefaultRating
	}

	md, err := e.generator.Generate(ctx, GenerateInput{
		PlaceID:   placeID,
		Summary:   content.Summary,
		Tags:      content.Tags,
		AvgRating: rating,
	})
	if err != nil {
		e.logger.Warn(ctx, "metadata generation failed, using fallback",
			logger.String("place_id", placeID), logger.Error(err))
		md = FallbackMetadata()
	}

	rec := BuildRecord(placeID, rating, md, e.now())
	if err := e.catalog.Put(ctx, rec); err != nil {
		return place.Record{}, fmt.Errorf("store %s: %w", placeID, err)
	}
	e.logger.Info(ctx, "place enriched",
		logger.String("place_id", placeID),
		logger.String("travel_style", string(rec.TravelStyle)),
		logger.String("budget_level", string(rec.BudgetLevel)),
		logger.String("season", string(rec.Season)),
	)
	return rec, nil
}

// BuildRecord maps generated metadata onto a catalog record. Each enumerated
// field takes the best-scoring value of its dimension.
func BuildRecord(placeID string, rating float64, md Metadata, at time.Time) place.Record {
	s := md.suitability()
	return place.Record{
		PlaceID:     placeID,
		Name:        DisplayName(placeID),
		TravelStyle: argmax(s.TravelStyle, place.TravelStyles),
		BudgetLevel: argmax(s.BudgetLevel, place.BudgetLevels),
		Season:      argmax(s.Season, place.Seasons),
		Duration:    md.durationDays(),
		BaseRating:  rating,
		Tags:        md.Tags,
		Reasoning:   md.Reasoning,
		Suitability: s,
		EnrichedAt:  at.UTC(),
	}
}

// DisplayName turns a slug like "naqsh-e-jahan" into "Naqsh E Jahan".
func DisplayName(placeID string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(placeID, "-", " "))
}
