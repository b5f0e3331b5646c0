package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dedupe "github.com/okian/wayfarer/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording places", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(100), dedupe.WithTTL(time.Hour))

			Convey("And the place is new", func() {
				seen := d.SeenAndRecord(ctx, "place-1")

				Convey("Then it should return false and record the place", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldBeLessThanOrEqualTo, 1)
				})
			})

			Convey("And the place was already seen", func() {
				d.SeenAndRecord(ctx, "place-1")
				seen := d.SeenAndRecord(ctx, "place-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
				})
			})

			Convey("And the place is unrecorded", func() {
				d.SeenAndRecord(ctx, "place-1")
				d.Unrecord(ctx, "place-1")

				Convey("Then it can be recorded again", func() {
					So(d.SeenAndRecord(ctx, "place-1"), ShouldBeFalse)
				})
			})

			Convey("And an unknown place is unrecorded", func() {
				So(func() { d.Unrecord(ctx, "missing") }, ShouldNotPanic)
			})
		})

		Convey("When the window elapses", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithTTL(100 * time.Millisecond))
			So(d.SeenAndRecord(ctx, "place-ttl"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "place-ttl"), ShouldBeTrue)

			Convey("Then the place should be accepted again", func() {
				deadline := time.Now().Add(5 * time.Second)
				accepted := false
				for time.Now().Before(deadline) {
					time.Sleep(100 * time.Millisecond)
					if !d.SeenAndRecord(ctx, "place-ttl") {
						accepted = true
						break
					}
				}
				So(accepted, ShouldBeTrue)
			})
		})

		Convey("When many goroutines race on the same ids", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithTTL(time.Hour))
			var fresh atomic.Int64
			var wg sync.WaitGroup
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						if !d.SeenAndRecord(ctx, fmt.Sprintf("place-%d", i)) {
							fresh.Add(1)
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id should be newly recorded exactly once", func() {
				So(fresh.Load(), ShouldEqual, 50)
			})
		})
	})
}
