package place

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEnumerations(t *testing.T) {
	Convey("Given the closed enumerations", t, func() {
		Convey("Then members should be valid and strangers not", func() {
			So(StyleFamily.Valid(), ShouldBeTrue)
			So(TravelStyle("family").Valid(), ShouldBeFalse)
			So(BudgetLuxury.Valid(), ShouldBeTrue)
			So(BudgetLevel("CHEAP").Valid(), ShouldBeFalse)
			So(SeasonWinter.Valid(), ShouldBeTrue)
			So(Season("AUTUMN").Valid(), ShouldBeFalse)
		})

		Convey("Then budget tiers should follow ECONOMY < MODERATE < LUXURY", func() {
			So(BudgetEconomy.Tier(), ShouldEqual, 0)
			So(BudgetModerate.Tier(), ShouldEqual, 1)
			So(BudgetLuxury.Tier(), ShouldEqual, 2)
			So(BudgetLevel("").Tier(), ShouldEqual, -1)
		})

		Convey("Then seasons should be indexed from spring", func() {
			So(SeasonSpring.Index(), ShouldEqual, 0)
			So(SeasonWinter.Index(), ShouldEqual, 3)
			So(Season("MONSOON").Index(), ShouldEqual, -1)
		})
	})
}

func TestParseEnums(t *testing.T) {
	Convey("Given free-form enumeration values", t, func() {
		Convey("When the value differs only in case and whitespace", func() {
			style, err1 := ParseTravelStyle("  family ")
			budget, err2 := ParseBudgetLevel("Moderate")
			season, err3 := ParseSeason("winter")

			Convey("Then it should be normalized to the member", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(style, ShouldEqual, StyleFamily)
				So(budget, ShouldEqual, BudgetModerate)
				So(season, ShouldEqual, SeasonWinter)
			})
		})

		Convey("When the travel style is unknown", func() {
			_, err := ParseTravelStyle("ALONE")

			Convey("Then the error should name the field and the allowed set", func() {
				So(errors.Is(err, ErrInvalidFilter), ShouldBeTrue)
				var verr *ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, FieldTravelStyle)
				So(verr.Value, ShouldEqual, "ALONE")
				So(verr.Allowed, ShouldResemble, []string{"SOLO", "COUPLE", "FAMILY", "FRIENDS", "BUSINESS"})
				So(err.Error(), ShouldContainSubstring, "Travel_style")
				So(err.Error(), ShouldContainSubstring, "SOLO, COUPLE, FAMILY, FRIENDS, BUSINESS")
			})
		})

		Convey("When the budget or season is unknown", func() {
			_, errB := ParseBudgetLevel("cheap")
			_, errS := ParseSeason("autumn")

			Convey("Then each error should carry its own field", func() {
				So(errB.Error(), ShouldContainSubstring, "Budget_level")
				So(errB.Error(), ShouldContainSubstring, "ECONOMY, MODERATE, LUXURY")
				So(errS.Error(), ShouldContainSubstring, "Season")
				So(errS.Error(), ShouldContainSubstring, "SPRING, SUMMER, FALL, WINTER")
			})
		})
	})
}

func TestParseDuration(t *testing.T) {
	Convey("Given trip duration values", t, func() {
		Convey("When the value is a number or numeric string", func() {
			cases := []struct {
				raw  any
				want float64
			}{
				{0.0, 0},
				{3.5, 3.5},
				{7, 7},
				{int64(2), 2},
				{json.Number("4.25"), 4.25},
				{" 5 ", 5},
				{"0", 0},
			}
			for _, c := range cases {
				got, err := ParseDuration(c.raw)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("When the value is negative, non-numeric or not finite", func() {
			bad := []any{-1.0, "-0.5", "three", "", math.NaN(), math.Inf(1), "Inf", true, []string{"1"}}
			for _, raw := range bad {
				_, err := ParseDuration(raw)
				So(errors.Is(err, ErrInvalidFilter), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Trip_duration")
			}
		})
	})
}
