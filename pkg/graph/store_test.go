package graph

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
)

func TestAddNode(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := New(catalog.New())

		Convey("When adding a node on every axis and a few levels", func() {
			for axis := 1; axis <= catalog.AxisCount; axis++ {
				for level := 1; level <= 3; level++ {
					id, err := store.AddNode(axis, level, "label", "description", nil)
					So(err, ShouldBeNil)

					count := 0
					for _, node := range store.NodesByAxisAndLevel(axis, level) {
						if node.ID == id {
							count++
						}
					}

					So(count, ShouldEqual, 1)
				}
			}

			Convey("Then every node should be indexed", func() {
				So(store.Len(), ShouldEqual, catalog.AxisCount*3)
			})
		})

		Convey("When the axis is out of range", func() {
			_, err := store.AddNode(14, 1, "x", "", nil)

			Convey("Then it should fail without touching the store", func() {
				So(errors.Is(err, errors.ErrInvalidAxis), ShouldBeTrue)
				So(store.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is not positive", func() {
			_, err := store.AddNode(1, 0, "x", "", nil)

			Convey("Then it should fail with an invalid level error", func() {
				So(errors.Is(err, errors.ErrInvalidLevel), ShouldBeTrue)
			})
		})

		Convey("When the caller mutates the attributes afterwards", func() {
			attrs := map[string]any{"source": "manual"}
			id, err := store.AddNode(2, 1, "Energy", "", attrs)
			So(err, ShouldBeNil)
			attrs["source"] = "changed"

			Convey("Then the stored node should be unaffected", func() {
				node, err := store.Node(id)
				So(err, ShouldBeNil)
				So(node.Attributes["source"], ShouldEqual, "manual")
			})
		})
	})
}

func TestAddRelationship(t *testing.T) {
	Convey("Given a store with two nodes", t, func() {
		store := New(nil)
		a, _ := store.AddNode(1, 1, "A", "", nil)
		b, _ := store.AddNode(2, 1, "B", "", nil)

		Convey("When an endpoint is unknown", func() {
			_, err := store.AddRelationship(a, "missing", "contains", DefaultWeight, nil)

			Convey("Then it should fail and leave every index untouched", func() {
				So(errors.Is(err, errors.ErrUnknownNode), ShouldBeTrue)
				So(store.OutgoingOf(a), ShouldBeEmpty)
				So(store.Stats().Relationships, ShouldEqual, 0)
				So(store.Stats().ByType, ShouldBeEmpty)
			})
		})

		Convey("When the weight is outside [0,1]", func() {
			_, err := store.AddRelationship(a, b, "contains", 1.5, nil)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, errors.ErrInvalidWeight), ShouldBeTrue)
			})
		})

		Convey("When both endpoints exist", func() {
			id, err := store.AddRelationship(a, b, "", DefaultWeight, nil)
			So(err, ShouldBeNil)

			Convey("Then it should be indexed in both directions", func() {
				out := store.OutgoingOf(a)
				So(len(out), ShouldEqual, 1)
				So(out[0].ID, ShouldEqual, id)
				So(out[0].Type, ShouldEqual, DefaultRelationshipType)
				So(len(store.IncomingOf(b)), ShouldEqual, 1)
				So(store.OutgoingOf(a, "contains"), ShouldBeEmpty)
			})
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		registry := catalog.New()
		store := New(registry)
		_, err := Seed(store, registry)
		So(err, ShouldBeNil)

		Convey("When searching ignoring case", func() {
			hits := store.Search("DATA GOVERNANCE")

			Convey("Then matches should be tagged with their axis name", func() {
				So(hits, ShouldNotBeEmpty)
				So(hits[0].Node.Label, ShouldEqual, "Data Governance")
				So(hits[0].AxisName, ShouldEqual, "Pillar Level")
			})
		})

		Convey("When filtering by axis", func() {
			hits := store.Search("privacy", 6)

			Convey("Then only regulatory nodes should match", func() {
				So(hits, ShouldNotBeEmpty)
				for _, hit := range hits {
					So(hit.Node.Axis, ShouldEqual, 6)
				}
			})
		})

		Convey("When searching by terms of a question", func() {
			hits := store.SearchTerms("What are the key considerations for implementing a data governance program?", 0)

			Convey("Then word level matches should be found without duplicates", func() {
				So(hits, ShouldNotBeEmpty)
				seen := map[string]bool{}
				for _, hit := range hits {
					So(seen[hit.Node.ID], ShouldBeFalse)
					seen[hit.Node.ID] = true
				}
			})

			Convey("Then the limit should be honoured", func() {
				So(len(store.SearchTerms("data governance", 2)), ShouldEqual, 2)
			})
		})
	})
}
