package graph

import (
	"bytes"
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/catalog"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/stores"
)

func seeded() *Store {
	registry := catalog.New()
	store := New(registry)

	if _, err := Seed(store, registry); err != nil {
		panic(err)
	}

	return store
}

func nodeIDs(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.ID)
	}

	return out
}

func TestExportLoad(t *testing.T) {
	Convey("Given a seeded store", t, func() {
		original := seeded()

		Convey("When its export is loaded into a fresh store", func() {
			fresh := New(catalog.New())
			So(fresh.Load(original.Export()), ShouldBeNil)

			Convey("Then the content should be identical", func() {
				So(fresh.Nodes(), ShouldResemble, original.Nodes())
				So(fresh.Relationships(), ShouldResemble, original.Relationships())
			})

			Convey("Then every axis index should answer the same", func() {
				for axis := 1; axis <= catalog.AxisCount; axis++ {
					So(nodeIDs(fresh.NodesByAxis(axis)), ShouldResemble, nodeIDs(original.NodesByAxis(axis)))
					So(nodeIDs(fresh.NodesByAxisAndLevel(axis, 1)), ShouldResemble, nodeIDs(original.NodesByAxisAndLevel(axis, 1)))
				}
			})
		})

		Convey("When round tripping through JSON", func() {
			var buf bytes.Buffer
			_, err := original.WriteTo(&buf)
			So(err, ShouldBeNil)

			fresh := New(nil)
			_, err = fresh.ReadFrom(&buf)
			So(err, ShouldBeNil)

			Convey("Then counts and indexes should survive", func() {
				So(fresh.Stats(), ShouldResemble, original.Stats())
				for axis := 1; axis <= catalog.AxisCount; axis++ {
					So(nodeIDs(fresh.NodesByAxis(axis)), ShouldResemble, nodeIDs(original.NodesByAxis(axis)))
				}
			})
		})

		Convey("When a snapshot references a missing node", func() {
			snapshot := original.Export()
			for id, rel := range snapshot.Relationships {
				rel.TargetID = "ghost"
				snapshot.Relationships[id] = rel
				break
			}

			target := New(nil)
			target.AddNode(1, 1, "keep me", "", nil)
			err := target.Load(snapshot)

			Convey("Then loading should fail and keep the previous contents", func() {
				So(errors.Is(err, errors.ErrUnknownNode), ShouldBeTrue)
				So(target.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestSaveRestore(t *testing.T) {
	Convey("Given a snapshot store", t, func() {
		ctx := context.Background()
		backend := stores.NewMemory()
		original := seeded()

		Convey("When nothing was saved yet", func() {
			err := New(nil).Restore(ctx, backend, "graph")

			Convey("Then restore should report not found", func() {
				So(errors.Is(err, errors.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the graph is saved and restored", func() {
			So(original.Save(ctx, backend, "graph"), ShouldBeNil)

			fresh := New(nil)
			So(fresh.Restore(ctx, backend, "graph"), ShouldBeNil)

			Convey("Then it should hold the same graph", func() {
				So(fresh.Len(), ShouldEqual, original.Len())
				So(nodeIDs(fresh.Nodes()), ShouldResemble, nodeIDs(original.Nodes()))
			})
		})
	})
}

func TestSeed(t *testing.T) {
	Convey("Given a freshly seeded store", t, func() {
		store := seeded()

		Convey("It should hold one axis node per axis", func() {
			for axis := 1; axis <= catalog.AxisCount; axis++ {
				found := false
				for _, node := range store.NodesByAxis(axis) {
					if node.Attributes[AttrKind] == "axis" {
						found = true
					}
				}

				So(found, ShouldBeTrue)
			}
		})

		Convey("It should link axes along the influence graph", func() {
			So(store.Stats().ByType["influences"], ShouldEqual, len(catalog.New().AxisGraph().Edges()))
		})
	})
}
