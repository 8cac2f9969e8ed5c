package utils

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeywords(t *testing.T) {
	Convey("Given a natural language question", t, func() {
		text := "What are the key considerations for implementing a data governance program?"

		Convey("It should keep only significant distinct words", func() {
			So(Keywords(text, 4), ShouldResemble, []string{
				"considerations", "implementing", "data", "governance", "program",
			})
		})
	})
}

func TestOverlap(t *testing.T) {
	Convey("Given keywords and a text", t, func() {
		keywords := []string{"data", "governance", "privacy", "audit"}

		Convey("It should return the matched fraction", func() {
			So(Overlap(keywords, "Data governance, done right."), ShouldEqual, 0.5)
			So(Overlap(nil, "anything"), ShouldEqual, 0)
		})

		Convey("It should report the matches in candidate order", func() {
			So(Matches(keywords, "an audit of privacy"), ShouldResemble, []string{"privacy", "audit"})
		})
	})
}

func TestClamp01(t *testing.T) {
	Convey("It should bound values to the unit interval", t, func() {
		So(Clamp01(-0.5), ShouldEqual, 0)
		So(Clamp01(0.25), ShouldEqual, 0.25)
		So(Clamp01(3), ShouldEqual, 1)
	})
}
