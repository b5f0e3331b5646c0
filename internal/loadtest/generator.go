package loadtest

import (
	"math/rand/v2"
	"strconv"
)

var (
	travelStyles = []string{"SOLO", "COUPLE", "FAMILY", "FRIENDS", "BUSINESS", "family", "couple"}
	budgetLevels = []string{"ECONOMY", "MODERATE", "LUXURY", "luxury"}
	seasons      = []string{"SPRING", "SUMMER", "FALL", "WINTER", "AUTUMN"}
)

const maxCandidates = 8

// Generator produces randomized recommendation requests from a fixed pool of
// place ids. It is not safe for concurrent use.
type Generator struct {
	rng      *rand.Rand
	placeIDs []string
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64, placeIDs []string) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		placeIDs: placeIDs,
	}
}

// Next returns a request with one to eight candidates and each filter present
// about half of the time.
func (g *Generator) Next() RecommendRequest {
	req := RecommendRequest{CandidatePlace: g.candidates()}
	if g.coin() {
		req.TravelStyle = g.pick(travelStyles)
	}
	if g.coin() {
		req.BudgetLevel = g.pick(budgetLevels)
	}
	if g.coin() {
		req.Season = g.pick(seasons)
	}
	if g.coin() {
		days := 1 + g.rng.IntN(10)
		if g.coin() {
			req.TripDuration = strconv.Itoa(days)
		} else {
			req.TripDuration = days
		}
	}
	return req
}

func (g *Generator) candidates() []string {
	if len(g.placeIDs) == 0 {
		return []string{}
	}
	n := 1 + g.rng.IntN(min(maxCandidates, len(g.placeIDs)))
	out := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(g.placeIDs))[:n] {
		out = append(out, g.placeIDs[i])
	}
	return out
}

func (g *Generator) coin() bool { return g.rng.IntN(2) == 0 }

func (g *Generator) pick(values []string) *string {
	v := values[g.rng.IntN(len(values))]
	return &v
}
