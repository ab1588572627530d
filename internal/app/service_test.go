package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/witarcade/internal/adapters/repository"
	service "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var errDown = errors.New("connection refused")

// brokenStore fails every call after EnsureIndexes.
type brokenStore struct{ repository.Store }

func (brokenStore) Insert(context.Context, model.Entry) (string, error) { return "", errDown }
func (brokenStore) Top(context.Context, int) ([]model.Entry, error)     { return nil, errDown }
func (brokenStore) ByEmail(context.Context, string, int) ([]model.Entry, error) {
	return nil, errDown
}
func (brokenStore) Count(context.Context) (int64, error) { return 0, errDown }
func (brokenStore) EnsureIndexes(context.Context) error  { return nil }
func (brokenStore) Close(context.Context) error          { return nil }

func started(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("Calls before Start fail", func() {
			_, err := svc.SubmitScore(context.Background(), model.NewSubmission("a@x.io", 3, 10, true))
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = svc.ListLeaderboard(context.Background(), 10)
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("When starting the service", func() {
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then it is marked as started with an empty board", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["entries"], ShouldEqual, int64(0))
			})

			Convey("And starting twice is harmless", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})
	})
}

func TestService_SubmitScore(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started()
		defer svc.Stop()
		ctx := context.Background()

		Convey("A submission without consent is rejected and not stored", func() {
			_, err := svc.SubmitScore(ctx, model.NewSubmission("a@b.co", 4, 72, false))
			So(errors.Is(err, service.ErrConsentRequired), ShouldBeTrue)
			So(svc.GetStats()["entries"], ShouldEqual, int64(0))
		})

		Convey("Invalid fields are rejected", func() {
			for _, sub := range []model.Submission{
				model.NewSubmission("nobody", 4, 72, true),
				model.NewSubmission("a@b.co", 0, 72, true),
				model.NewSubmission("a@b.co", 3, -1, true),
			} {
				_, err := svc.SubmitScore(ctx, sub)
				So(errors.Is(err, service.ErrInvalidPayload), ShouldBeTrue)
			}
			So(svc.GetStats()["entries"], ShouldEqual, int64(0))
		})

		Convey("A valid submission is stored with a normalized email", func() {
			id, err := svc.SubmitScore(ctx, model.NewSubmission("  A@B.co ", 4, 72, true))
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			top, err := svc.ListLeaderboard(ctx, 0)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 1)
			So(top[0].Email, ShouldEqual, "a@b.co")
			So(top[0].Guesses, ShouldEqual, 4)
			So(top[0].ElapsedSec, ShouldEqual, 72)
			So(top[0].CreatedAt.IsZero(), ShouldBeFalse)
		})
	})
}

func TestService_ListLeaderboard(t *testing.T) {
	Convey("Given a service with a fixed clock", t, func() {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := started(service.WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}))
		defer svc.Stop()
		ctx := context.Background()

		Convey("Entries are ordered by guesses, then time, then age", func() {
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("slow@x.io", 3, 90, true))
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("first@x.io", 2, 40, true))
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("second@x.io", 2, 40, true))
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("fast@x.io", 3, 10, true))

			top, err := svc.ListLeaderboard(ctx, 10)
			So(err, ShouldBeNil)
			emails := make([]string, len(top))
			for i, e := range top {
				emails[i] = e.Email
			}
			So(emails, ShouldResemble, []string{"first@x.io", "second@x.io", "fast@x.io", "slow@x.io"})
		})

		Convey("Limits default to 10 and are capped at 50", func() {
			for i := 0; i < 60; i++ {
				_, err := svc.SubmitScore(ctx, model.NewSubmission("p@x.io", 1+i%6, i, true))
				So(err, ShouldBeNil)
			}
			top, _ := svc.ListLeaderboard(ctx, 0)
			So(top, ShouldHaveLength, 10)
			top, _ = svc.ListLeaderboard(ctx, 1000)
			So(top, ShouldHaveLength, 50)
			top, _ = svc.ListLeaderboard(ctx, 3)
			So(top, ShouldHaveLength, 3)
		})

		Convey("History lists one player's entries, newest first", func() {
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("me@x.io", 5, 10, true))
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("you@x.io", 1, 10, true))
			_, _ = svc.SubmitScore(ctx, model.NewSubmission("me@x.io", 2, 10, true))

			hist, err := svc.History(ctx, "ME@x.io", 10)
			So(err, ShouldBeNil)
			So(hist, ShouldHaveLength, 2)
			So(hist[0].Guesses, ShouldEqual, 2)
			So(hist[1].Guesses, ShouldEqual, 5)
		})
	})
}

func TestService_Idempotency(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started()
		defer svc.Stop()
		ctx := context.Background()
		sub := model.NewSubmission("a@b.co", 4, 72, true)

		Convey("Replaying a key returns the original id without a second insert", func() {
			first, err := svc.SubmitScoreIdempotent(ctx, "k1", sub)
			So(err, ShouldBeNil)
			So(first.Replayed, ShouldBeFalse)

			again, err := svc.SubmitScoreIdempotent(ctx, "k1", sub)
			So(err, ShouldBeNil)
			So(again.Replayed, ShouldBeTrue)
			So(again.ID, ShouldEqual, first.ID)
			So(svc.GetStats()["entries"], ShouldEqual, int64(1))
		})

		Convey("Reusing a key for a different score is rejected", func() {
			_, err := svc.SubmitScoreIdempotent(ctx, "k2", sub)
			So(err, ShouldBeNil)
			_, err = svc.SubmitScoreIdempotent(ctx, "k2", model.NewSubmission("a@b.co", 5, 72, true))
			So(err, ShouldEqual, service.ErrIdempotencyMismatch)
		})
	})
}

func TestService_StoreFailure(t *testing.T) {
	Convey("Given a service whose store is down", t, func() {
		svc := started(service.WithStore(brokenStore{}))
		defer svc.Stop()
		ctx := context.Background()

		Convey("Submissions fail as unavailable", func() {
			_, err := svc.SubmitScore(ctx, model.NewSubmission("a@b.co", 4, 72, true))
			So(errors.Is(err, service.ErrServiceUnavailable), ShouldBeTrue)
		})

		Convey("A failed idempotent insert frees the key for retry", func() {
			_, err := svc.SubmitScoreIdempotent(ctx, "k", model.NewSubmission("a@b.co", 4, 72, true))
			So(errors.Is(err, service.ErrServiceUnavailable), ShouldBeTrue)
			_, err = svc.SubmitScoreIdempotent(ctx, "k", model.NewSubmission("a@b.co", 4, 72, true))
			So(errors.Is(err, service.ErrServiceUnavailable), ShouldBeTrue)
		})

		Convey("Reads fail as unavailable", func() {
			_, err := svc.ListLeaderboard(ctx, 10)
			So(errors.Is(err, service.ErrServiceUnavailable), ShouldBeTrue)
			So(svc.GetStats()["entries"], ShouldBeNil)
		})
	})
}

func TestParseLimit(t *testing.T) {
	Convey("ParseLimit reads loose numeric input", t, func() {
		So(service.ParseLimit(""), ShouldEqual, 0)
		So(service.ParseLimit("abc"), ShouldEqual, 0)
		So(service.ParseLimit("5"), ShouldEqual, 5)
		So(service.ParseLimit(" 7 "), ShouldEqual, 7)
		So(service.ParseLimit("3.9"), ShouldEqual, 3)
		So(service.ParseLimit("-4"), ShouldEqual, 0)
		So(service.ParseLimit("1e3"), ShouldEqual, 1000)
	})

	Convey("Limit applies the default and the cap", t, func() {
		svc := service.New(service.WithLimits(5, 20))
		So(svc.Limit(0), ShouldEqual, 5)
		So(svc.Limit(-3), ShouldEqual, 5)
		So(svc.Limit(12), ShouldEqual, 12)
		So(svc.Limit(99), ShouldEqual, 20)
	})
}
