package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/errors"
	"github.com/theapemachine/ukg/pkg/stores"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore() (*Store, *clock) {
	c := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Clock = c.Now

	return New(cfg), c
}

func TestObserve(t *testing.T) {
	Convey("Given a fact observed once", t, func() {
		store, _ := newTestStore()
		first, err := store.Observe("s1", Entry{Content: "GDPR requires a lawful basis", Confidence: 0.5, Salience: 0.4})
		So(err, ShouldBeNil)
		So(first.ID, ShouldEqual, FactID("gdpr requires a  LAWFUL basis"))

		Convey("When the same fact is observed again", func() {
			second, err := store.Observe("s1", Entry{Content: "GDPR requires a lawful basis", Confidence: 0.9, Salience: 0.2})
			So(err, ShouldBeNil)

			Convey("Then confidence should blend old*0.7 + incoming*0.3", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(second.Confidence, ShouldAlmostEqual, 0.62, 1e-9)
			})

			Convey("Then salience should keep the maximum", func() {
				So(second.Salience, ShouldEqual, 0.4)
			})

			Convey("Then the stream should still hold one entry", func() {
				entries, err := store.Entries("s1")
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
				So(entries[0].AccessCount, ShouldEqual, 1)
			})
		})

		Convey("When observations race from many goroutines", func() {
			var wg sync.WaitGroup

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					store.Observe("s1", Entry{Content: "GDPR requires a lawful basis", Confidence: 0.5})
				}()
			}

			wg.Wait()

			Convey("Then every observation should merge into the same entry", func() {
				entries, _ := store.Entries("s1")
				So(len(entries), ShouldEqual, 1)
				So(entries[0].AccessCount, ShouldEqual, 20)
				So(entries[0].Confidence, ShouldAlmostEqual, 0.5, 1e-9)
			})
		})
	})

	Convey("Given an empty observation", t, func() {
		store, _ := newTestStore()
		_, err := store.Observe("s1", Entry{})

		Convey("It should be rejected", func() {
			So(errors.Is(err, errors.ErrInvalidQuery), ShouldBeTrue)
		})
	})
}

func TestGet(t *testing.T) {
	Convey("Given a stored entry", t, func() {
		store, c := newTestStore()
		entry, _ := store.Add("notes", Entry{Content: "SOC 2 covers availability", Salience: 0.98})

		Convey("When it is read", func() {
			c.Advance(time.Minute)
			got, err := store.Get("notes", entry.ID)
			So(err, ShouldBeNil)

			Convey("Then access should be tracked and salience boosted up to 1", func() {
				So(got.AccessCount, ShouldEqual, 1)
				So(got.LastAccess, ShouldEqual, c.Now())
				So(got.Salience, ShouldEqual, 1)
			})
		})

		Convey("When the stream or entry is unknown", func() {
			_, err := store.Get("nope", entry.ID)
			So(errors.Is(err, errors.ErrUnknownStream), ShouldBeTrue)

			_, err = store.Get("notes", "nope")
			So(errors.Is(err, errors.ErrUnknownEntry), ShouldBeTrue)
		})
	})
}

func TestRetrieve(t *testing.T) {
	Convey("Given entries with different salience", t, func() {
		store, _ := newTestStore()
		store.Add("a", Entry{ID: "low", Content: "data governance charter", Salience: 0})
		store.Add("b", Entry{ID: "high", Content: "data governance roles", Salience: 1})
		store.Add("b", Entry{ID: "other", Content: "quarterly revenue", Salience: 1})

		Convey("When retrieving by keyword", func() {
			recalls := store.Retrieve("data governance", RetrieveOptions{})

			Convey("Then the more salient match should rank first", func() {
				So(len(recalls), ShouldEqual, 2)
				So(recalls[0].Entry.ID, ShouldEqual, "high")
				So(recalls[0].Score, ShouldEqual, 1)
				So(recalls[1].Entry.ID, ShouldEqual, "low")
				So(recalls[1].Score, ShouldEqual, 0.5)
			})

			Convey("Then retrieved entries should be touched", func() {
				So(recalls[1].Entry.AccessCount, ShouldEqual, 1)
			})
		})

		Convey("When restricted to one stream with a limit", func() {
			recalls := store.Retrieve("data governance revenue", RetrieveOptions{Streams: []string{"a"}, Limit: 1})

			Convey("Then only that stream should be searched", func() {
				So(len(recalls), ShouldEqual, 1)
				So(recalls[0].StreamID, ShouldEqual, "a")
			})
		})

		Convey("When the query has no keywords", func() {
			So(store.Retrieve("a of the", RetrieveOptions{}), ShouldBeEmpty)
		})
	})
}

func TestDecay(t *testing.T) {
	Convey("Given an entry left idle for one half-life", t, func() {
		store, c := newTestStore()
		entry, _ := store.Add("s", Entry{Content: "iso 27001 controls", Salience: 0.8})
		c.Advance(time.Hour)

		changed := store.Decay(c.Now(), time.Hour, 0.1)

		Convey("It should halve the salience", func() {
			So(changed, ShouldEqual, 1)
			got, _ := store.Entries("s")
			So(got[0].Salience, ShouldAlmostEqual, 0.4, 1e-9)
		})

		Convey("It should not decay twice for the same idle time", func() {
			So(store.Decay(c.Now(), time.Hour, 0.1), ShouldEqual, 0)
		})

		Convey("It should respect the floor", func() {
			c.Advance(10 * time.Hour)
			store.Decay(c.Now(), time.Hour, 0.1)
			got, _ := store.Get("s", entry.ID)
			So(got.Salience, ShouldAlmostEqual, 0.15, 1e-9)
		})
	})
}

func TestWorking(t *testing.T) {
	Convey("Given a working memory of capacity three", t, func() {
		working := NewWorking(3)

		for _, content := range []string{"a", "b", "c", "d"} {
			working.Push(Item{Content: content})
		}

		Convey("It should keep the newest items, newest first", func() {
			items := working.Items()
			So(working.Len(), ShouldEqual, 3)
			So(items[0].Content, ShouldEqual, "d")
			So(items[2].Content, ShouldEqual, "b")
		})

		Convey("It should empty on Clear", func() {
			working.Clear()
			So(working.Len(), ShouldEqual, 0)
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a store with two streams", t, func() {
		store, _ := newTestStore()
		store.CreateStream("session-1", "Session one", "session", map[string]any{"user": "u1"})
		store.Add("session-1", Entry{ID: "e1", Content: "hipaa applies to covered entities", Confidence: 0.8})
		store.Add("default", Entry{ID: "e2", Content: "dama dmbok", Confidence: 0.6})

		Convey("When exported and loaded into a fresh store", func() {
			fresh, _ := newTestStore()
			So(fresh.Load(store.Export()), ShouldBeNil)

			Convey("Then streams and entries should match", func() {
				So(fresh.Export(), ShouldResemble, store.Export())
				So(fresh.Stream("session-1").Name, ShouldEqual, "Session one")
				So(len(fresh.Streams()), ShouldEqual, 2)
			})
		})

		Convey("When the metadata handed out is modified", func() {
			store.Stream("session-1").Metadata["user"] = "mallory"
			store.Export().Streams["session-1"].Metadata["user"] = "mallory"

			Convey("Then the stream should keep its own copy", func() {
				So(store.Stream("session-1").Metadata["user"], ShouldEqual, "u1")
			})
		})

		Convey("When the metadata passed in is modified afterwards", func() {
			metadata := map[string]any{"user": "u2"}
			store.CreateStream("session-2", "", "", metadata)
			metadata["user"] = "mallory"

			Convey("Then the stream should keep its own copy", func() {
				So(store.Stream("session-2").Metadata["user"], ShouldEqual, "u2")
			})
		})

		Convey("When saved to a snapshot store and restored", func() {
			ctx := context.Background()
			backend := stores.NewMemory()
			So(store.Save(ctx, backend, "memory"), ShouldBeNil)

			fresh, _ := newTestStore()
			So(fresh.Restore(ctx, backend, "memory"), ShouldBeNil)

			Convey("Then entries should be retrievable", func() {
				got, err := fresh.Get("session-1", "e1")
				So(err, ShouldBeNil)
				So(got.Confidence, ShouldEqual, 0.8)
			})
		})
	})
}
