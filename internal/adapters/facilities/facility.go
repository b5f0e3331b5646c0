// Package facilities queries the third-party nearby-facilities service and
// maps its results into Facility values.
package facilities

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Fixed planning defaults; the upstream service does not expose them.
const (
	DefaultVisitDurationMinutes = 60
	DefaultOpeningHour          = 8
	DefaultClosingHour          = 22
)

// Facility is a normalized point of interest near a place.
type Facility struct {
	ID                   int64    `json:"id"`
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	Lat                  float64  `json:"lat"`
	Lng                  float64  `json:"lng"`
	Cost                 float64  `json:"cost"`
	Rating               float64  `json:"rating"`
	Tags                 []string `json:"tags"`
	VisitDurationMinutes int      `json:"visit_duration_minutes"`
	OpeningHour          int      `json:"opening_hour"`
	ClosingHour          int      `json:"closing_hour"`
}

// Query selects facilities around a coordinate.
type Query struct {
	Lat        float64
	Lng        float64
	RadiusM    int
	Categories []string
}

// Validate checks coordinate ranges and the radius.
func (q Query) Validate() error {
	switch {
	case math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90:
		return fmt.Errorf("%w: lat %v", ErrInvalidQuery, q.Lat)
	case math.IsNaN(q.Lng) || q.Lng < -180 || q.Lng > 180:
		return fmt.Errorf("%w: lng %v", ErrInvalidQuery, q.Lng)
	case q.RadiusM <= 0:
		return fmt.Errorf("%w: radius %d", ErrInvalidQuery, q.RadiusM)
	}
	return nil
}

// priceTiers maps the upstream price tier to an estimated cost in rials.
var priceTiers = map[string]float64{
	"free":      0,
	"budget":    500_000,
	"moderate":  2_000_000,
	"expensive": 5_000_000,
	"luxury":    10_000_000,
	"unknown":   0,
}

// EstimateCost returns the cost estimate of a price tier; unknown tiers cost 0.
func EstimateCost(tier string) float64 {
	return priceTiers[strings.ToLower(strings.TrimSpace(tier))]
}

type nearbyResponse struct {
	Results []struct {
		Place json.RawMessage `json:"place"`
	} `json:"results"`
}

type rawPlace struct {
	FacID     json.Number `json:"fac_id"`
	NameEN    string      `json:"name_en"`
	NameFA    string      `json:"name_fa"`
	Category  string      `json:"category"`
	PriceTier string      `json:"price_tier"`
	AvgRating any         `json:"avg_rating"`
	Location  *struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"location"`
	Amenities []struct {
		NameEN string `json:"name_en"`
	} `json:"amenities"`
}

// mapPlace converts one upstream place. Entries without a usable location
// or id are rejected.
func mapPlace(raw json.RawMessage) (Facility, error) {
	var p rawPlace
	if err := json.Unmarshal(raw, &p); err != nil {
		return Facility{}, err
	}
	if p.Location == nil || len(p.Location.Coordinates) < 2 {
		return Facility{}, fmt.Errorf("missing coordinates")
	}

	var id int64
	if p.FacID != "" {
		v, err := p.FacID.Int64()
		if err != nil {
			return Facility{}, fmt.Errorf("fac_id: %w", err)
		}
		id = v
	}

	name := p.NameEN
	if name == "" || name == "unknown" {
		name = p.NameFA
	}
	if name == "" {
		name = "Unknown Place"
	}

	category := p.Category
	if category == "" {
		category = "general"
	}

	tags := make([]string, 0, len(p.Amenities))
	for _, a := range p.Amenities {
		if a.NameEN != "" {
			tags = append(tags, a.NameEN)
		}
	}

	tier := p.PriceTier
	if tier == "" {
		tier = "unknown"
	}

	// GeoJSON order is [lng, lat].
	return Facility{
		ID:                   id,
		Name:                 name,
		Type:                 category,
		Lat:                  p.Location.Coordinates[1],
		Lng:                  p.Location.Coordinates[0],
		Cost:                 EstimateCost(tier),
		Rating:               parseRating(p.AvgRating),
		Tags:                 tags,
		VisitDurationMinutes: DefaultVisitDurationMinutes,
		OpeningHour:          DefaultOpeningHour,
		ClosingHour:          DefaultClosingHour,
	}, nil
}

func parseRating(v any) float64 {
	switch r := v.(type) {
	case float64:
		return r
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
