// Package place holds the place record owned by the catalog and the closed
// preference enumerations the scoring engine works with.
package place

import (
	"slices"
	"time"
)

// TravelStyle is who the trip is for.
type TravelStyle string

// Travel styles.
const (
	StyleSolo     TravelStyle = "SOLO"
	StyleCouple   TravelStyle = "COUPLE"
	StyleFamily   TravelStyle = "FAMILY"
	StyleFriends  TravelStyle = "FRIENDS"
	StyleBusiness TravelStyle = "BUSINESS"
)

// TravelStyles lists every travel style in declaration order.
var TravelStyles = []TravelStyle{StyleSolo, StyleCouple, StyleFamily, StyleFriends, StyleBusiness}

// Valid reports whether s is a member of the enumeration.
func (s TravelStyle) Valid() bool { return slices.Contains(TravelStyles, s) }

// BudgetLevel is an ordered spending tier.
type BudgetLevel string

// Budget levels, cheapest first.
const (
	BudgetEconomy  BudgetLevel = "ECONOMY"
	BudgetModerate BudgetLevel = "MODERATE"
	BudgetLuxury   BudgetLevel = "LUXURY"
)

// BudgetLevels lists every budget level from cheapest to most expensive.
var BudgetLevels = []BudgetLevel{BudgetEconomy, BudgetModerate, BudgetLuxury}

// Valid reports whether b is a member of the enumeration.
func (b BudgetLevel) Valid() bool { return slices.Contains(BudgetLevels, b) }

// Tier returns the position of b in BudgetLevels, or -1 when b is unknown.
func (b BudgetLevel) Tier() int { return slices.Index(BudgetLevels, b) }

// Season of the year. The order is cyclic: WINTER is adjacent to SPRING.
type Season string

// Seasons.
const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonFall   Season = "FALL"
	SeasonWinter Season = "WINTER"
)

// Seasons lists every season starting from spring.
var Seasons = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// Valid reports whether s is a member of the enumeration.
func (s Season) Valid() bool { return slices.Contains(Seasons, s) }

// Index returns the position of s in Seasons, or -1 when s is unknown.
func (s Season) Index() int { return slices.Index(Seasons, s) }

// Suitability holds per-value fitness scores in [0,1] produced by enrichment.
type Suitability struct {
	TravelStyle map[TravelStyle]float64 `json:"travel_style,omitempty"`
	BudgetLevel map[BudgetLevel]float64 `json:"budget_level,omitempty"`
	Season      map[Season]float64      `json:"season,omitempty"`
}

// Record is a place as stored in the catalog. The scoring engine only reads
// PlaceID, TravelStyle, BudgetLevel, Season and Duration.
type Record struct {
	PlaceID     string      `json:"place_id"`
	Name        string      `json:"name,omitempty"`
	TravelStyle TravelStyle `json:"travel_style"`
	BudgetLevel BudgetLevel `json:"budget_level"`
	Season      Season      `json:"season"`
	// Duration is the recommended visit length in days.
	Duration    float64     `json:"duration"`
	Region      string      `json:"region,omitempty"`
	BaseRating  float64     `json:"base_rating"`
	Tags        []string    `json:"tags,omitempty"`
	Reasoning   string      `json:"reasoning,omitempty"`
	Suitability Suitability `json:"suitability,omitzero"`
	EnrichedAt  time.Time   `json:"enriched_at,omitzero"`
}
