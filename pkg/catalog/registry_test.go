package catalog

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/types"
)

func TestNew(t *testing.T) {
	Convey("Given the embedded catalog", t, func() {
		registry := New()

		Convey("It should define thirteen axes in order", func() {
			axes := registry.Axes()
			So(len(axes), ShouldEqual, AxisCount)

			for i, axis := range axes {
				So(axis.Number, ShouldEqual, i+1)
				So(axis.Name, ShouldNotBeEmpty)
			}
		})

		Convey("It should bind the four roles to the persona axes", func() {
			for i, role := range types.Roles {
				profile, err := registry.DefaultProfile(role)
				So(err, ShouldBeNil)
				So(profile.Axis, ShouldEqual, 8+i)
				So(profile.Keywords, ShouldNotBeEmpty)
			}
		})

		Convey("It should carry seed data", func() {
			So(registry.Seed().Nodes, ShouldNotBeEmpty)
			So(registry.Seed().Relationships, ShouldNotBeEmpty)
		})
	})
}

func TestAxis(t *testing.T) {
	Convey("Given a registry", t, func() {
		registry := New()

		Convey("When asking for an axis outside the range", func() {
			_, err := registry.Axis(14)

			Convey("Then it should fail with an invalid axis error", func() {
				So(errors.Is(err, errors.ErrInvalidAxis), ShouldBeTrue)
				So(registry.AxisName(0), ShouldBeEmpty)
			})
		})
	})
}

func TestAxisGraph(t *testing.T) {
	Convey("Given the axis influence graph", t, func() {
		graph := New().AxisGraph()

		Convey("Axis 1 should influence every other axis", func() {
			So(len(graph.Influences(1)), ShouldEqual, AxisCount-1)
		})

		Convey("The persona axes should form a cycle", func() {
			So(graph.Influences(8), ShouldContain, 9)
			So(graph.Influences(9), ShouldContain, 10)
			So(graph.Influences(10), ShouldContain, 11)
			So(graph.Influences(11), ShouldContain, 8)
			So(graph.InfluencedBy(8), ShouldResemble, []int{1, 11})
		})

		Convey("Relevance should follow edge direction", func() {
			So(graph.Relevance(6, 6), ShouldEqual, RelevanceSame)
			So(graph.Relevance(6, 10), ShouldEqual, RelevanceDirect)
			So(graph.Relevance(10, 6), ShouldEqual, RelevanceReverse)
			So(graph.Relevance(6, 7), ShouldEqual, RelevanceDistance)
		})
	})
}

func TestCreateDomainPersona(t *testing.T) {
	Convey("Given a registry", t, func() {
		registry := New()

		Convey("When creating a healthcare compliance persona", func() {
			profile, err := registry.CreateDomainPersona("Healthcare", types.RoleCompliance, []string{"HITRUST", "phi"})
			So(err, ShouldBeNil)

			Convey("Then it should extend the role default", func() {
				So(profile.ID, ShouldEqual, "compliance-healthcare")
				So(profile.Axis, ShouldEqual, 11)
				So(profile.Keywords, ShouldContain, "hitrust")
				So(profile.Keywords, ShouldContain, "audit")
				So(profile.HasDomain("healthcare"), ShouldBeTrue)
			})

			Convey("Then the domain should resolve to it", func() {
				resolved, err := registry.ProfileForDomain(types.RoleCompliance, "healthcare")
				So(err, ShouldBeNil)
				So(resolved.ID, ShouldEqual, profile.ID)

				other, err := registry.ProfileForDomain(types.RoleCompliance, "energy")
				So(err, ShouldBeNil)
				So(other.ID, ShouldEqual, "compliance")
				So(registry.DomainPersonas(types.RoleCompliance), ShouldResemble, map[string]string{"healthcare": "compliance-healthcare"})
			})

			Convey("Then creating it again should merge keywords", func() {
				again, err := registry.CreateDomainPersona("healthcare", types.RoleCompliance, []string{"hipaa"})
				So(err, ShouldBeNil)
				So(again.Keywords, ShouldContain, "hitrust")
				So(again.Keywords, ShouldContain, "hipaa")
				So(len(registry.Profiles()), ShouldEqual, 5)
			})
		})

		Convey("When the role is unknown", func() {
			_, err := registry.CreateDomainPersona("energy", types.Role("oracle"), nil)

			Convey("Then it should fail with algorithm not found", func() {
				So(errors.Is(err, errors.ErrAlgorithmNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a catalog with too few axes", t, func() {
		_, err := Load(strings.NewReader("axes:\n  - number: 1\n    name: only\n"))

		Convey("It should be rejected", func() {
			So(errors.Is(err, errors.ErrInvalidAxis), ShouldBeTrue)
		})
	})
}
