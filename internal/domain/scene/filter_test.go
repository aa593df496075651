package scene_test

import (
	"testing"

	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilter_Key(t *testing.T) {
	Convey("Given two filters with the same terms in different order", t, func() {
		a := scene.Filter{Criteria: []scene.Criterion{
			{Field: "performers", Modifier: "INCLUDES", Value: []string{"7"}},
			{Field: "rating100", Modifier: "GREATER_THAN", Value: 40},
		}}
		b := scene.Filter{Criteria: []scene.Criterion{
			{Field: "rating100", Modifier: "GREATER_THAN", Value: 40},
			{Field: "performers", Modifier: "INCLUDES", Value: []string{"7"}},
		}}

		Convey("Then their keys are identical", func() {
			So(a.Key(), ShouldEqual, b.Key())
			So(a.Key().IsZero(), ShouldBeFalse)
		})
	})

	Convey("Given filters that differ in one term", t, func() {
		a := scene.Filter{Criteria: []scene.Criterion{{Field: "rating100", Modifier: "GREATER_THAN", Value: 40}}}
		b := scene.Filter{Criteria: []scene.Criterion{{Field: "rating100", Modifier: "GREATER_THAN", Value: 50}}}
		c := scene.Filter{Criteria: []scene.Criterion{{Field: "rating100", Modifier: "LESS_THAN", Value: 40}}}

		Convey("Then their keys differ", func() {
			So(a.Key(), ShouldNotEqual, b.Key())
			So(a.Key(), ShouldNotEqual, c.Key())
		})
	})

	Convey("Given a free-text query", t, func() {
		a := scene.Filter{Query: "beach"}
		b := scene.Filter{Query: "mountain"}

		Convey("Then the query contributes to the key", func() {
			So(a.Key(), ShouldNotEqual, b.Key())
		})
	})

	Convey("Given the zero filter", t, func() {
		var f scene.Filter

		Convey("Then it selects everything and has the zero key", func() {
			So(f.IsZero(), ShouldBeTrue)
			So(f.Key().IsZero(), ShouldBeTrue)
		})
	})
}
