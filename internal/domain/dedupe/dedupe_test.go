package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/witarcade/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is claimed for the first time", func() {
			c := d.Claim(ctx, "k1", "fp")

			Convey("Then the caller owns it", func() {
				So(c.Outcome, ShouldEqual, dedupe.Claimed)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a concurrent retry sees it in flight", func() {
				So(d.Claim(ctx, "k1", "fp").Outcome, ShouldEqual, dedupe.InFlight)
			})

			Convey("And after completion a retry replays the id", func() {
				d.Complete(ctx, "k1", "id-1")
				c := d.Claim(ctx, "k1", "fp")
				So(c.Outcome, ShouldEqual, dedupe.Replayed)
				So(c.ID, ShouldEqual, "id-1")

				Convey("But a different payload under the same key is refused", func() {
					So(d.Claim(ctx, "k1", "other").Outcome, ShouldEqual, dedupe.Mismatch)
				})

				Convey("And Release no longer forgets it", func() {
					d.Release(ctx, "k1")
					So(d.Claim(ctx, "k1", "fp").Outcome, ShouldEqual, dedupe.Replayed)
				})
			})

			Convey("And after a release it can be claimed again", func() {
				d.Release(ctx, "k1")
				So(d.Size(), ShouldEqual, 0)
				So(d.Claim(ctx, "k1", "fp").Outcome, ShouldEqual, dedupe.Claimed)
			})
		})

		Convey("When the cache is full", func() {
			for i := 1; i <= 3; i++ {
				key := fmt.Sprintf("k%d", i)
				d.Claim(ctx, key, "fp")
				if i != 1 {
					d.Complete(ctx, key, "id")
				}
			}
			d.Claim(ctx, "k4", "fp")

			Convey("Then the oldest completed key is evicted and pending keys survive", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.Claim(ctx, "k1", "fp").Outcome, ShouldEqual, dedupe.InFlight)
				So(d.Claim(ctx, "k3", "fp").Outcome, ShouldEqual, dedupe.Replayed)
			})
		})
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on one key", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		var wg sync.WaitGroup
		var mu sync.Mutex
		claimed := 0
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if d.Claim(ctx, "same", "fp").Outcome == dedupe.Claimed {
					mu.Lock()
					claimed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		So(claimed, ShouldEqual, 1)
		So(d.Size(), ShouldEqual, 1)
	})
}
