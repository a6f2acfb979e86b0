package airtable

import (
	"errors"
	"testing"

	"github.com/okian/register/internal/adapters/recordstore"
	"github.com/okian/register/internal/domain/filter"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormula(t *testing.T) {
	Convey("Given filter expressions", t, func() {
		Convey("When the expression is nil", func() {
			got, err := Formula(nil)

			Convey("Then no formula should be produced", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, "")
			})
		})

		Convey("When rendering equality on each value type", func() {
			Convey("Then literals should be typed", func() {
				cases := map[string]filter.Expr{
					`{event_id} = "recE1"`:     filter.Eq("event_id", "recE1"),
					`{Status} = TRUE()`:        filter.Eq("Status", true),
					`{is_baptised} = FALSE()`:  filter.Eq("is_baptised", false),
					`{age} = 42`:               filter.Eq("age", 42),
					`{score} = 1.25`:           filter.Eq("score", 1.25),
					`RECORD_ID() = "recM1"`:    filter.ID("recM1"),
					`{Service Event} = "recX"`: filter.Eq("Service Event", "recX"),
				}
				for want, e := range cases {
					got, err := Formula(e)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				}
			})
		})

		Convey("When rendering a name search", func() {
			e := filter.Any(
				filter.Contains{Field: "first_name", Substring: "ÉMILE"},
				filter.Contains{Field: "last_name", Substring: "ÉMILE"},
			)
			got, err := Formula(e)

			Convey("Then the needle should be lower-cased and both names searched", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, `OR(SEARCH("émile", LOWER({first_name})), SEARCH("émile", LOWER({last_name})))`)
			})
		})

		Convey("When rendering nested combinations", func() {
			e := filter.All(
				filter.Eq("event_id", "recE"),
				filter.Eq("Status", true),
				filter.IDs([]string{"rec1", "rec2"}),
			)
			got, err := Formula(e)

			Convey("Then AND and OR should nest", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, `AND({event_id} = "recE", {Status} = TRUE(), OR(RECORD_ID() = "rec1", RECORD_ID() = "rec2"))`)
			})
		})

		Convey("When values contain quotes, backslashes and control characters", func() {
			got, err := Formula(filter.Eq("last_name", "O\"Brien\\\n\x01x"))

			Convey("Then they should be escaped inside the literal", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, `{last_name} = "O\"Brien\\\nx"`)
			})
		})

		Convey("When a search term tries to close the formula", func() {
			got, err := Formula(filter.Contains{Field: "first_name", Substring: `"), TRUE(), ("`})

			Convey("Then it should stay a single string literal", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, `SEARCH("\"), true(), (\"", LOWER({first_name}))`)
			})
		})

		Convey("When a field name is unsafe", func() {
			_, err := Formula(filter.Eq("x} = 1, {y", "v"))

			Convey("Then it should be rejected as an invalid query", func() {
				So(errors.Is(err, recordstore.ErrInvalidQuery), ShouldBeTrue)
				So(errors.Is(err, filter.ErrInvalid), ShouldBeTrue)
			})
		})
	})
}
