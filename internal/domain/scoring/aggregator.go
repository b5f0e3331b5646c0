package scoring

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	"github.com/okian/wayfarer/pkg/metrics"
)

const roundingFactor = 1e4

// scorer is a scoring function bound to a validated criterion.
type scorer func(places []place.Record) []Multiplier

// stage is one entry of the dimension pipeline. bind validates the raw filter
// and returns the bound scorer, or nil when the filter was not supplied.
type stage struct {
	dim  Dimension
	bind func(p Policy, req Request) (scorer, error)
}

// pipeline lists every dimension in the order it is applied.
var pipeline = []stage{
	{dim: DimensionStyle, bind: bindStyle},
	{dim: DimensionBudget, bind: bindBudget},
	{dim: DimensionSeason, bind: bindSeason},
	{dim: DimensionDuration, bind: bindDuration},
}

// supplied reports whether a filter was given. Only null and "" are absent;
// a whitespace-only value is still validated.
func supplied(raw *string) bool {
	return raw != nil && *raw != ""
}

func bindStyle(p Policy, req Request) (scorer, error) {
	if !supplied(req.TravelStyle) {
		return nil, nil
	}
	style, err := place.ParseTravelStyle(*req.TravelStyle)
	if err != nil {
		return nil, err
	}
	return func(places []place.Record) []Multiplier { return p.ByStyle(places, style) }, nil
}

func bindBudget(p Policy, req Request) (scorer, error) {
	if !supplied(req.BudgetLevel) {
		return nil, nil
	}
	budget, err := place.ParseBudgetLevel(*req.BudgetLevel)
	if err != nil {
		return nil, err
	}
	return func(places []place.Record) []Multiplier { return p.ByBudget(places, budget) }, nil
}

func bindSeason(p Policy, req Request) (scorer, error) {
	if !supplied(req.Season) {
		return nil, nil
	}
	season, err := place.ParseSeason(*req.Season)
	if err != nil {
		return nil, err
	}
	return func(places []place.Record) []Multiplier { return p.BySeason(places, season) }, nil
}

func bindDuration(p Policy, req Request) (scorer, error) {
	if req.TripDuration == nil {
		return nil, nil
	}
	days, err := place.ParseDuration(req.TripDuration)
	if err != nil {
		return nil, err
	}
	return func(places []place.Record) []Multiplier { return p.ByDuration(places, days) }, nil
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPolicy sets the scoring policy. Out-of-range values fall back to defaults.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) {
		a.policy = p.normalized()
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// Aggregator validates requests, runs the dimension pipeline over the
// resolved candidates and ranks the result. It holds no per-request state
// and is safe for concurrent use.
type Aggregator struct {
	catalog Catalog
	policy  Policy
	stages  []stage
	logger  logger.Logger
}

// NewAggregator creates an Aggregator reading records from catalog.
func NewAggregator(catalog Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{
		catalog: catalog,
		policy:  DefaultPolicy(),
		stages:  pipeline,
		logger:  logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the policy in effect.
func (a *Aggregator) Policy() Policy {
	return a.policy
}

// Score ranks req.CandidateIDs. Unknown ids are dropped and duplicates keep
// their first position. Every supplied filter is validated before any scorer
// runs; an invalid one returns a *place.ValidationError.
func (a *Aggregator) Score(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if len(req.CandidateIDs) == 0 {
		metrics.RecordRecommendation("empty")
		return Result{Places: []ScoredPlace{}, Message: MsgNoCandidates}, nil
	}

	records, err := a.catalog.Lookup(ctx, req.CandidateIDs)
	if err != nil {
		metrics.RecordRecommendation("error")
		return Result{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	resolved := resolve(req.CandidateIDs, records)
	metrics.RecordCandidatesResolved(len(resolved))
	if len(resolved) == 0 {
		metrics.RecordRecommendation("not_found")
		return Result{Places: []ScoredPlace{}, Message: MsgNoneFound}, nil
	}

	type bound struct {
		dim   Dimension
		score scorer
	}
	active := make([]bound, 0, len(a.stages))
	for _, st := range a.stages {
		fn, err := st.bind(a.policy, req)
		if err != nil {
			metrics.RecordRecommendation("invalid")
			return Result{}, err
		}
		if fn != nil {
			active = append(active, bound{dim: st.dim, score: fn})
		}
	}

	index := make(map[string]int, len(resolved))
	running := make([]float64, len(resolved))
	for i, rec := range resolved {
		index[rec.PlaceID] = i
		running[i] = 1.0
	}

	applied := make([]Dimension, 0, len(active))
	for _, b := range active {
		mults := b.score(resolved)
		if len(mults) != len(resolved) {
			metrics.RecordRecommendation("error")
			return Result{}, fmt.Errorf("%w: %s returned %d multipliers for %d places",
				ErrScoringInvariant, b.dim, len(mults), len(resolved))
		}
		for _, m := range mults {
			i, ok := index[m.PlaceID]
			if !ok || math.IsNaN(m.Value) || m.Value < 0 || m.Value > 1 {
				metrics.RecordRecommendation("error")
				return Result{}, fmt.Errorf("%w: %s multiplier %v for place %q",
					ErrScoringInvariant, b.dim, m.Value, m.PlaceID)
			}
			running[i] *= m.Value
		}
		applied = append(applied, b.dim)
		metrics.RecordFilterApplied(string(b.dim))
	}

	if len(applied) == 0 {
		for i := range running {
			running[i] = a.policy.NoFilterScore
		}
	}

	places := make([]ScoredPlace, len(resolved))
	for i, rec := range resolved {
		places[i] = ScoredPlace{PlaceID: rec.PlaceID, Score: round(running[i])}
	}
	slices.SortStableFunc(places, func(x, y ScoredPlace) int {
		return cmp.Compare(y.Score, x.Score)
	})

	metrics.RecordRecommendation("scored")
	a.logger.Debug(ctx, "scored candidates",
		logger.Int("requested", len(req.CandidateIDs)),
		logger.Int("resolved", len(resolved)),
		logger.Any("applied", applied),
	)
	return Result{Places: places, Applied: applied}, nil
}

// resolve orders records by the first appearance of their id in ids,
// dropping unknown ids and duplicates.
func resolve(ids []string, records []place.Record) []place.Record {
	byID := make(map[string]place.Record, len(records))
	for _, rec := range records {
		if _, ok := byID[rec.PlaceID]; !ok {
			byID[rec.PlaceID] = rec
		}
	}
	out := make([]place.Record, 0, len(byID))
	seen := make(map[string]struct{}, len(byID))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// round keeps four decimals, rounding half away from zero.
func round(v float64) float64 {
	return math.Round(v*roundingFactor) / roundingFactor
}
