package client_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/okian/witarcade/internal/adapters/http/api"
	service "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestClient(t *testing.T) {
	Convey("Given a running server", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		srv := httptest.NewServer(api.NewServer(svc).Handler())
		defer srv.Close()

		c := client.New(srv.URL + "/")
		ctx := context.Background()

		Convey("Ping succeeds", func() {
			So(c.Ping(ctx), ShouldBeNil)
		})

		Convey("Submitted scores are listed", func() {
			id, err := c.SubmitScore(ctx, model.NewSubmission("Me@X.io", 3, 20, true))
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			top, err := c.ListLeaderboard(ctx, 5)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 1)
			So(top[0].Email, ShouldEqual, "me@x.io")
		})

		Convey("Keys replay", func() {
			first, err := c.Submit(ctx, "key-1", model.NewSubmission("a@x.io", 3, 20, true))
			So(err, ShouldBeNil)
			again, err := c.Submit(ctx, "key-1", model.NewSubmission("a@x.io", 3, 20, true))
			So(err, ShouldBeNil)
			So(again.Replayed, ShouldBeTrue)
			So(again.ID, ShouldEqual, first.ID)
		})

		Convey("Validation errors map to model errors", func() {
			_, err := c.SubmitScore(ctx, model.NewSubmission("a@x.io", 3, 20, false))
			So(errors.Is(err, model.ErrConsentRequired), ShouldBeTrue)
			_, err = c.SubmitScore(ctx, model.NewSubmission("ax.io", 3, 20, true))
			So(errors.Is(err, model.ErrInvalidPayload), ShouldBeTrue)
		})

		Convey("Raw limits pass through untouched", func() {
			top, err := c.ListRaw(ctx, "/api/leaderboard?limit=nope")
			So(err, ShouldBeNil)
			So(top, ShouldBeEmpty)
		})
	})

	Convey("Given no server", t, func() {
		c := client.New("http://127.0.0.1:1")
		_, err := c.ListLeaderboard(context.Background(), 0)
		So(errors.Is(err, client.ErrUnavailable), ShouldBeTrue)
	})
}
