package service

import (
	"github.com/okian/wayfarer/internal/adapters/enrichment"
	"github.com/okian/wayfarer/internal/adapters/repository"
	"github.com/okian/wayfarer/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog replaces the configured catalog backend. The cache and the
// circuit breaker are still layered on top.
func WithCatalog(c repository.Catalog) Option {
	return func(s *Service) {
		s.backend = c
	}
}

// WithGenerator replaces the metadata generator chosen from configuration.
func WithGenerator(g enrichment.MetadataGenerator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithContentSource replaces the content service client.
func WithContentSource(c enrichment.ContentSource) Option {
	return func(s *Service) {
		s.content = c
	}
}

// WithRatingSource replaces the engagement service client.
func WithRatingSource(r enrichment.RatingSource) Option {
	return func(s *Service) {
		s.ratings = r
	}
}

// WithFacilityFinder replaces the facilities client.
func WithFacilityFinder(f FacilityFinder) Option {
	return func(s *Service) {
		s.facilities = f
	}
}
