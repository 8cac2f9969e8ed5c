package stores

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/ukg/pkg/errors"
)

type failingStore struct {
	calls int
}

func (store *failingStore) Put(ctx context.Context, key string, data []byte) error {
	store.calls++
	return errors.New("connection refused")
}

func (store *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	store.calls++
	return nil, errors.ErrNotFound
}

func TestMemory(t *testing.T) {
	Convey("Given an in-process store", t, func() {
		store := NewMemory()
		ctx := context.Background()

		Convey("It should return a copy of what was written", func() {
			data := []byte("abc")
			So(store.Put(ctx, "k", data), ShouldBeNil)
			data[0] = 'x'

			out, err := store.Get(ctx, "k")
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, "abc")
		})

		Convey("It should report missing keys", func() {
			_, err := store.Get(ctx, "nope")
			So(errors.Is(err, errors.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestBreaker(t *testing.T) {
	Convey("Given a breaker around a failing store", t, func() {
		inner := &failingStore{}
		store := WithBreaker(inner, "test")
		ctx := context.Background()

		Convey("When writes keep failing", func() {
			for i := 0; i < 5; i++ {
				So(store.Put(ctx, "k", nil), ShouldNotBeNil)
			}

			err := store.Put(ctx, "k", nil)

			Convey("Then the circuit should open and stop calling the store", func() {
				So(errors.Is(err, errors.ErrSnapshot), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 5)
				So(store.State(), ShouldEqual, "open")
			})
		})

		Convey("When reads miss", func() {
			for i := 0; i < 10; i++ {
				_, err := store.Get(ctx, "k")
				So(errors.Is(err, errors.ErrNotFound), ShouldBeTrue)
			}

			Convey("Then the circuit should stay closed", func() {
				So(store.State(), ShouldEqual, "closed")
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given backend configurations", t, func() {
		ctx := context.Background()

		Convey("The default should be in-process", func() {
			store, err := Open(ctx, DefaultConfig())
			So(err, ShouldBeNil)
			So(store, ShouldHaveSameTypeAs, &Memory{})
		})

		Convey("A file backend should open in a directory", func() {
			store, err := Open(ctx, Config{Backend: "file", Path: t.TempDir()})
			So(err, ShouldBeNil)
			So(store, ShouldNotBeNil)
		})

		Convey("An unknown backend should be rejected", func() {
			_, err := Open(ctx, Config{Backend: "tape"})
			So(err, ShouldNotBeNil)
		})
	})
}
