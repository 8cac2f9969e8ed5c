package auth

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	at time.Time
}

func (clock *fakeClock) now() time.Time { return clock.at }

func (clock *fakeClock) advance(d time.Duration) { clock.at = clock.at.Add(d) }

func TestNewRateLimiter(t *testing.T) {
	Convey("When creating a rate limiter", t, func() {
		Convey("Then it initializes with a full bucket", func() {
			rl := NewRateLimiter(2, time.Second)
			So(rl, ShouldNotBeNil)
			So(rl.WaitTime(), ShouldEqual, 0)
		})

		Convey("Then a non-positive rate panics", func() {
			So(func() { NewRateLimiter(0, time.Second) }, ShouldPanic)
		})
	})
}

func TestRateLimiterAllow(t *testing.T) {
	Convey("Given a limiter with capacity 2", t, func() {
		clock := &fakeClock{at: time.Unix(0, 0)}
		rl := newRateLimiter(2, time.Second, clock.now)

		ok1 := rl.Allow()
		ok2 := rl.Allow()
		ok3 := rl.Allow()

		Convey("Then the third call should be limited", func() {
			So(ok1, ShouldBeTrue)
			So(ok2, ShouldBeTrue)
			So(ok3, ShouldBeFalse)
			So(rl.WaitTime(), ShouldEqual, 500*time.Millisecond)
		})

		Convey("And after half a second it allows one more", func() {
			clock.advance(500 * time.Millisecond)
			So(rl.Allow(), ShouldBeTrue)
			So(rl.Allow(), ShouldBeFalse)
		})

		Convey("And Reset refills the bucket", func() {
			rl.Reset()
			So(rl.Allow(), ShouldBeTrue)
			So(rl.Allow(), ShouldBeTrue)
		})
	})
}

func TestLimiters(t *testing.T) {
	Convey("Given per-client limiters of one request per minute", t, func() {
		limiters := NewLimiters(1, time.Minute)

		Convey("Each client should get its own bucket", func() {
			So(limiters.Allow("a"), ShouldBeTrue)
			So(limiters.Allow("a"), ShouldBeFalse)
			So(limiters.Allow("b"), ShouldBeTrue)
		})
	})
}
