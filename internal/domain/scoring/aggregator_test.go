package scoring

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/okian/wayfarer/internal/domain/place"
	"github.com/okian/wayfarer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]place.Record
	err     error
	calls   int
}

func newFakeCatalog(records ...place.Record) *fakeCatalog {
	c := &fakeCatalog{records: make(map[string]place.Record)}
	for _, r := range records {
		c.records[r.PlaceID] = r
	}
	return c
}

// Lookup returns records in reverse request order to prove the aggregator
// does not depend on catalog ordering.
func (c *fakeCatalog) Lookup(_ context.Context, ids []string) ([]place.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	var out []place.Record
	for i := len(ids) - 1; i >= 0; i-- {
		if r, ok := c.records[ids[i]]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func str(s string) *string { return &s }

func ids(places []ScoredPlace) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.PlaceID
	}
	return out
}

func scores(places []ScoredPlace) map[string]float64 {
	out := make(map[string]float64, len(places))
	for _, p := range places {
		out[p.PlaceID] = p.Score
	}
	return out
}

func sampleCatalog() *fakeCatalog {
	return newFakeCatalog(
		rec("a", place.StyleFamily, place.BudgetModerate, place.SeasonSummer, 3),
		rec("b", place.StyleSolo, place.BudgetEconomy, place.SeasonWinter, 1),
		rec("c", place.StyleFamily, place.BudgetLuxury, place.SeasonSummer, 7),
		rec("d", place.StyleCouple, place.BudgetModerate, place.SeasonFall, 3),
	)
}

func TestAggregatorEmptyResults(t *testing.T) {
	Convey("Given an aggregator over a small catalog", t, func() {
		catalog := sampleCatalog()
		agg := NewAggregator(catalog)
		ctx := context.Background()

		Convey("When no candidates are supplied", func() {
			res, err := agg.Score(ctx, Request{TravelStyle: str("NOT-A-STYLE")})

			Convey("Then the result is empty regardless of filters", func() {
				So(err, ShouldBeNil)
				So(res.Places, ShouldNotBeNil)
				So(res.Places, ShouldBeEmpty)
				So(res.Message, ShouldEqual, MsgNoCandidates)
				So(catalog.calls, ShouldEqual, 0)
			})
		})

		Convey("When no candidate resolves", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"x", "y"}, Season: str("SUMMER")})

			Convey("Then the result is empty with the not-found message", func() {
				So(err, ShouldBeNil)
				So(res.Places, ShouldBeEmpty)
				So(res.Message, ShouldEqual, MsgNoneFound)
			})
		})
	})
}

func TestAggregatorScoring(t *testing.T) {
	Convey("Given an aggregator over a small catalog", t, func() {
		agg := NewAggregator(sampleCatalog())
		ctx := context.Background()

		Convey("When filtering by FAMILY style", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"a", "b"}, TravelStyle: str("FAMILY")})

			Convey("Then a scores 1.0, b the penalty, sorted [a, b]", func() {
				So(err, ShouldBeNil)
				So(res.Places, ShouldResemble, []ScoredPlace{{PlaceID: "a", Score: 1.0}, {PlaceID: "b", Score: 0.5}})
				So(res.Applied, ShouldResemble, []Dimension{DimensionStyle})
				So(res.Message, ShouldBeEmpty)
			})
		})

		Convey("When the filter value uses lower case", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"b", "a"}, TravelStyle: str("family")})
			So(err, ShouldBeNil)
			So(ids(res.Places), ShouldResemble, []string{"a", "b"})
		})

		Convey("When no filter is supplied", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"a", "b"}})

			Convey("Then every resolved place gets the neutral score in input order", func() {
				So(err, ShouldBeNil)
				So(res.Places, ShouldResemble, []ScoredPlace{{PlaceID: "a", Score: 1.0}, {PlaceID: "b", Score: 1.0}})
				So(res.Applied, ShouldBeEmpty)
			})
		})

		Convey("When an enumeration filter is empty", func() {
			res, err := agg.Score(ctx, Request{
				CandidateIDs: []string{"a", "b"},
				TravelStyle:  str(""),
			})

			Convey("Then it counts as not supplied", func() {
				So(err, ShouldBeNil)
				So(res.Applied, ShouldBeEmpty)
				So(scores(res.Places), ShouldResemble, map[string]float64{"a": 1.0, "b": 1.0})
			})
		})

		Convey("When an enumeration filter is only whitespace", func() {
			res, err := agg.Score(ctx, Request{
				CandidateIDs: []string{"a", "b"},
				Season:       str("   "),
			})

			Convey("Then it is rejected naming the field and its allowed set", func() {
				var verr *place.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, place.FieldSeason)
				So(verr.Allowed, ShouldResemble, []string{"SPRING", "SUMMER", "FALL", "WINTER"})
				So(res.Places, ShouldBeNil)
			})
		})

		Convey("When every dimension is supplied", func() {
			res, err := agg.Score(ctx, Request{
				CandidateIDs: []string{"a", "b", "c", "d"},
				TravelStyle:  str("FAMILY"),
				BudgetLevel:  str("MODERATE"),
				Season:       str("SUMMER"),
				TripDuration: 3.0,
			})

			Convey("Then each score is the rounded product of the multipliers", func() {
				So(err, ShouldBeNil)
				got := scores(res.Places)
				So(got["a"], ShouldEqual, 1.0)
				So(got["b"], ShouldEqual, round(0.5*0.5*0.5*(1.0/3)))
				So(got["c"], ShouldEqual, round(1.0*0.5*1.0*0.2))
				So(got["d"], ShouldEqual, round(0.5*1.0*0.5*1.0))
				So(ids(res.Places), ShouldResemble, []string{"a", "d", "c", "b"})
				So(res.Applied, ShouldResemble, []Dimension{DimensionStyle, DimensionBudget, DimensionSeason, DimensionDuration})
			})
		})

		Convey("When scores tie", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"d", "b", "a", "c"}, TravelStyle: str("FAMILY")})

			Convey("Then ties keep their candidate order", func() {
				So(err, ShouldBeNil)
				So(ids(res.Places), ShouldResemble, []string{"a", "c", "d", "b"})
			})
		})

		Convey("When candidates repeat or are unknown", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"b", "zz", "a", "b", "a"}})

			Convey("Then unknown ids are dropped and duplicates collapse to the first appearance", func() {
				So(err, ShouldBeNil)
				So(ids(res.Places), ShouldResemble, []string{"b", "a"})
			})
		})

		Convey("When the trip duration is zero", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"b"}, TripDuration: 0.0})

			Convey("Then it is accepted and scored", func() {
				So(err, ShouldBeNil)
				So(res.Places[0].Score, ShouldEqual, 0.5)
			})
		})

		Convey("When the trip duration is a numeric string", func() {
			res, err := agg.Score(ctx, Request{CandidateIDs: []string{"a"}, TripDuration: "3"})
			So(err, ShouldBeNil)
			So(res.Places[0].Score, ShouldEqual, 1.0)
		})

		Convey("When the same request is scored twice", func() {
			req := Request{CandidateIDs: []string{"a", "b", "c", "d"}, Season: str("summer"), TripDuration: 2}
			first, err1 := agg.Score(ctx, req)
			second, err2 := agg.Score(ctx, req)

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestAggregatorValidation(t *testing.T) {
	Convey("Given an aggregator over a small catalog", t, func() {
		agg := NewAggregator(sampleCatalog())
		ctx := context.Background()
		base := []string{"a", "b"}

		Convey("When an enumeration value is unknown", func() {
			cases := []struct {
				req   Request
				field string
				set   string
			}{
				{Request{CandidateIDs: base, TravelStyle: str("ALONE")}, place.FieldTravelStyle, "SOLO, COUPLE, FAMILY, FRIENDS, BUSINESS"},
				{Request{CandidateIDs: base, BudgetLevel: str("CHEAP")}, place.FieldBudgetLevel, "ECONOMY, MODERATE, LUXURY"},
				{Request{CandidateIDs: base, Season: str("AUTUMN")}, place.FieldSeason, "SPRING, SUMMER, FALL, WINTER"},
			}
			for _, c := range cases {
				res, err := agg.Score(ctx, c.req)
				var verr *place.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, c.field)
				So(err.Error(), ShouldContainSubstring, c.set)
				So(res.Places, ShouldBeNil)
			}
		})

		Convey("When the duration is negative or non-numeric", func() {
			for _, raw := range []any{-1.0, "abc", "", "-2"} {
				_, err := agg.Score(ctx, Request{CandidateIDs: base, TripDuration: raw})
				So(errors.Is(err, place.ErrInvalidFilter), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, place.FieldTripDuration)
			}
		})

		Convey("When a valid filter precedes an invalid one", func() {
			_, err := agg.Score(ctx, Request{CandidateIDs: base, TravelStyle: str("SOLO"), TripDuration: "soon"})

			Convey("Then the whole request fails", func() {
				So(errors.Is(err, place.ErrInvalidFilter), ShouldBeTrue)
			})
		})
	})
}

func TestAggregatorFailures(t *testing.T) {
	Convey("Given a catalog that fails", t, func() {
		catalog := sampleCatalog()
		catalog.err = errors.New("connection refused")
		agg := NewAggregator(catalog)

		Convey("When scoring", func() {
			res, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"a"}})

			Convey("Then a catalog error is returned with no partial output", func() {
				So(errors.Is(err, ErrCatalogUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "connection refused")
				So(res.Places, ShouldBeNil)
			})
		})
	})

	Convey("Given a scorer that breaks its contract", t, func() {
		agg := NewAggregator(sampleCatalog())
		broken := func(v float64, id string) stage {
			return stage{dim: "broken", bind: func(Policy, Request) (scorer, error) {
				return func(places []place.Record) []Multiplier {
					out := make([]Multiplier, len(places))
					for i, p := range places {
						out[i] = Multiplier{PlaceID: p.PlaceID, Value: 1}
					}
					out[0] = Multiplier{PlaceID: id, Value: v}
					return out
				}, nil
			}}
		}

		Convey("When a multiplier is above 1", func() {
			agg.stages = []stage{broken(1.5, "a")}
			_, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"a", "b"}})
			So(errors.Is(err, ErrScoringInvariant), ShouldBeTrue)
		})

		Convey("When a multiplier names an unknown place", func() {
			agg.stages = []stage{broken(0.5, "ghost")}
			_, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"a", "b"}})
			So(errors.Is(err, ErrScoringInvariant), ShouldBeTrue)
		})

		Convey("When a scorer drops a place", func() {
			agg.stages = []stage{{dim: "short", bind: func(Policy, Request) (scorer, error) {
				return func([]place.Record) []Multiplier { return nil }, nil
			}}}
			_, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"a"}})
			So(errors.Is(err, ErrScoringInvariant), ShouldBeTrue)
		})
	})
}

func TestAggregatorCommutativity(t *testing.T) {
	Convey("Given the same request scored with the pipeline in reverse order", t, func() {
		forward := NewAggregator(sampleCatalog())
		reversed := NewAggregator(sampleCatalog())
		reversed.stages = []stage{pipeline[3], pipeline[2], pipeline[1], pipeline[0]}

		req := Request{
			CandidateIDs: []string{"a", "b", "c", "d"},
			TravelStyle:  str("COUPLE"),
			BudgetLevel:  str("ECONOMY"),
			Season:       str("FALL"),
			TripDuration: 2.5,
		}
		f, err1 := forward.Score(context.Background(), req)
		r, err2 := reversed.Score(context.Background(), req)

		Convey("Then the scores are the same", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(scores(r.Places), ShouldResemble, scores(f.Places))
		})
	})
}

func TestAggregatorPolicy(t *testing.T) {
	Convey("Given an aggregator with a custom policy", t, func() {
		agg := NewAggregator(sampleCatalog(), WithPolicy(Policy{
			MismatchPenalty: 0.3,
			DurationScale:   1,
			BudgetGraduated: true,
			NoFilterScore:   0,
		}), WithLogger(logger.Nop()))

		Convey("When no filter is supplied", func() {
			res, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"a", "b"}})

			Convey("Then the configured neutral score is used", func() {
				So(err, ShouldBeNil)
				So(scores(res.Places), ShouldResemble, map[string]float64{"a": 0, "b": 0})
			})
		})

		Convey("When filtering by budget", func() {
			res, err := agg.Score(context.Background(), Request{CandidateIDs: []string{"b", "a", "c"}, BudgetLevel: str("ECONOMY")})

			Convey("Then graduation and the tuned penalty apply", func() {
				So(err, ShouldBeNil)
				So(res.Places, ShouldResemble, []ScoredPlace{
					{PlaceID: "b", Score: 1.0},
					{PlaceID: "a", Score: 0.65},
					{PlaceID: "c", Score: 0.3},
				})
			})
		})

		Convey("Then Policy reports the values in effect", func() {
			So(agg.Policy().MismatchPenalty, ShouldEqual, 0.3)
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Given scores with many decimals", t, func() {
		So(round(1.0/3), ShouldEqual, 0.3333)
		So(round(2.0/3), ShouldEqual, 0.6667)
		So(round(0.125), ShouldEqual, 0.125)
		So(round(1), ShouldEqual, 1)
	})
}

func TestAggregatorConcurrency(t *testing.T) {
	Convey("Given many concurrent requests", t, func() {
		agg := NewAggregator(sampleCatalog())
		req := Request{CandidateIDs: []string{"a", "b", "c", "d"}, TravelStyle: str("FAMILY"), TripDuration: 3}
		want, err := agg.Score(context.Background(), req)
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		results := make([]Result, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = agg.Score(context.Background(), req)
			}(i)
		}
		wg.Wait()

		Convey("Then every result matches the sequential one", func() {
			for _, r := range results {
				So(r, ShouldResemble, want)
			}
		})
	})
}
