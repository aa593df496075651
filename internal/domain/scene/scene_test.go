package scene_test

import (
	"testing"

	scene "github.com/dtt-git/stash-battle/internal/domain/scene"
	. "github.com/smartystreets/goconvey/convey"
)

func ratedScene(id string, rating int) scene.Scene {
	return scene.Scene{ID: id}.WithRating(rating)
}

func TestSceneRating(t *testing.T) {
	Convey("Given a scene", t, func() {
		Convey("When it carries no rating", func() {
			s := scene.Scene{ID: "a"}

			Convey("Then it reports unrated", func() {
				So(s.Rated(), ShouldBeFalse)
				v, ok := s.RatingValue()
				So(ok, ShouldBeFalse)
				So(v, ShouldEqual, 0)
			})
		})

		Convey("When a rating is attached with WithRating", func() {
			s := scene.Scene{ID: "a"}.WithRating(72)

			Convey("Then the copy is rated and the original is untouched", func() {
				So(s.Rated(), ShouldBeTrue)
				v, ok := s.RatingValue()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 72)
			})

			Convey("And re-rating produces an independent value", func() {
				s2 := s.WithRating(10)
				v, _ := s.RatingValue()
				v2, _ := s2.RatingValue()
				So(v, ShouldEqual, 72)
				So(v2, ShouldEqual, 10)
			})
		})
	})
}

func TestModeAndSide(t *testing.T) {
	Convey("Given mode parsing", t, func() {
		Convey("When parsing known modes", func() {
			for _, name := range []string{"swiss", "gauntlet", "champion"} {
				m, ok := scene.ParseMode(name)
				So(ok, ShouldBeTrue)
				So(m.Valid(), ShouldBeTrue)
			}
		})

		Convey("When parsing an unknown mode", func() {
			_, ok := scene.ParseMode("ladder")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given side validation", t, func() {
		So(scene.SideLeft.Valid(), ShouldBeTrue)
		So(scene.SideRight.Valid(), ShouldBeTrue)
		So(scene.Side("middle").Valid(), ShouldBeFalse)
	})
}

func TestOrdering(t *testing.T) {
	Convey("Given a mixed set of scenes", t, func() {
		scenes := []scene.Scene{
			{ID: "u2"},
			ratedScene("c", 40),
			ratedScene("a", 90),
			{ID: "u1"},
			ratedScene("b", 90),
			ratedScene("d", 75),
		}

		Convey("When sorted by rating", func() {
			scene.SortByRating(scenes)

			Convey("Then rated scenes come first in descending order", func() {
				So(scenes[0].ID, ShouldEqual, "a")
				So(scenes[1].ID, ShouldEqual, "b")
				So(scenes[2].ID, ShouldEqual, "d")
				So(scenes[3].ID, ShouldEqual, "c")
			})

			Convey("And unrated scenes trail in ID order", func() {
				So(scenes[4].ID, ShouldEqual, "u1")
				So(scenes[5].ID, ShouldEqual, "u2")
			})

			Convey("And ties break by ID for a stable order", func() {
				So(scene.Less(ratedScene("a", 90), ratedScene("b", 90)), ShouldBeTrue)
				So(scene.Less(ratedScene("b", 90), ratedScene("a", 90)), ShouldBeFalse)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a rating-descending set", t, func() {
		ordered := []scene.Scene{
			ratedScene("top", 95),
			ratedScene("mid", 60),
			ratedScene("low", 20),
			{ID: "unrated"},
		}

		Convey("When looking up ranks", func() {
			Convey("Then rated scenes report 1-based positions", func() {
				So(scene.Rank(ordered, "top"), ShouldEqual, 1)
				So(scene.Rank(ordered, "mid"), ShouldEqual, 2)
				So(scene.Rank(ordered, "low"), ShouldEqual, 3)
			})

			Convey("And unrated or absent scenes have no rank", func() {
				So(scene.Rank(ordered, "unrated"), ShouldEqual, 0)
				So(scene.Rank(ordered, "missing"), ShouldEqual, 0)
			})
		})

		Convey("When counting rated scenes", func() {
			So(scene.CountRated(ordered), ShouldEqual, 3)
			So(scene.CountRated(nil), ShouldEqual, 0)
		})

		Convey("When locating by id", func() {
			So(scene.IndexOf(ordered, "mid"), ShouldEqual, 1)
			So(scene.IndexOf(ordered, "missing"), ShouldEqual, -1)
		})
	})
}
