package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/witarcade/internal/adapters/http/api"
	service "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/internal/domain/suggest"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/internal/play"
	"github.com/okian/witarcade/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// failingBoard fails every call.
type failingBoard struct{}

func (failingBoard) SubmitScoreIdempotent(context.Context, string, model.Submission) (service.Receipt, error) {
	return service.Receipt{}, errors.Join(service.ErrServiceUnavailable, errors.New("mongo: no reachable servers"))
}

func (failingBoard) ListLeaderboard(context.Context, int) ([]types.Entry, error) {
	return nil, errors.Join(service.ErrServiceUnavailable, errors.New("mongo: no reachable servers"))
}

// stubBoard fails submissions with err.
type stubBoard struct {
	failingBoard
	err error
}

func (b stubBoard) SubmitScoreIdempotent(context.Context, string, model.Submission) (service.Receipt, error) {
	return service.Receipt{}, b.err
}

func newService() *service.Service {
	svc := service.New()
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func do(h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type listBody struct {
	Entries []types.Entry `json:"entries"`
}

type errBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given an API server over an in-memory leaderboard", t, func() {
		svc := newService()
		defer svc.Stop()
		h := api.NewServer(svc).Handler()

		Convey("An empty board lists no entries", func() {
			w := do(h, http.MethodGet, "/api/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"entries":[]`)
		})

		Convey("A submission without consent is rejected and nothing is stored", func() {
			w := do(h, http.MethodPost, "/api/leaderboard", `{"email":"a@b.co","guesses":4,"elapsedSec":72,"consent":false}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errBody](w).Code, ShouldEqual, "consent_required")
			So(decode[listBody](do(h, http.MethodGet, "/api/leaderboard", "")).Entries, ShouldBeEmpty)
		})

		Convey("Consent is checked before the other fields", func() {
			w := do(h, http.MethodPost, "/api/leaderboard", `{"email":"nope","guesses":0}`)
			So(decode[errBody](w).Code, ShouldEqual, "consent_required")
		})

		Convey("Invalid payloads are rejected", func() {
			for _, body := range []string{
				`{"email":"nope","guesses":4,"elapsedSec":72,"consent":true}`,
				`{"email":"a@b.co","guesses":4.5,"elapsedSec":72,"consent":true}`,
				`{"email":"a@b.co","guesses":"4","elapsedSec":72,"consent":true}`,
				`{"email":"a@b.co","guesses":4,"elapsedSec":-1,"consent":true}`,
				`{"email":"a@b.co",`,
			} {
				w := do(h, http.MethodPost, "/api/leaderboard", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errBody](w).Code, ShouldEqual, "invalid_payload")
			}
		})

		Convey("A valid submission is stored and listed", func() {
			w := do(h, http.MethodPost, "/api/leaderboard", `{"email":"A@B.co","guesses":4,"elapsedSec":72,"consent":true}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			id := decode[map[string]string](w)["id"]
			So(id, ShouldNotBeEmpty)

			list := decode[listBody](do(h, http.MethodGet, "/api/leaderboard", ""))
			So(list.Entries, ShouldHaveLength, 1)
			So(list.Entries[0].Email, ShouldEqual, "a@b.co")
			So(list.Entries[0].Guesses, ShouldEqual, 4)
			So(list.Entries[0].ElapsedSec, ShouldEqual, 72)
			So(list.Entries[0].CreatedAt.IsZero(), ShouldBeFalse)
		})

		Convey("Limits are clamped to 50 and junk falls back to 10", func() {
			for i := 0; i < 60; i++ {
				w := do(h, http.MethodPost, "/api/leaderboard", `{"email":"p@x.io","guesses":3,"elapsedSec":10,"consent":true}`)
				So(w.Code, ShouldEqual, http.StatusCreated)
			}
			So(decode[listBody](do(h, http.MethodGet, "/api/leaderboard?limit=1000", "")).Entries, ShouldHaveLength, 50)
			So(decode[listBody](do(h, http.MethodGet, "/api/leaderboard?limit=abc", "")).Entries, ShouldHaveLength, 10)
			So(decode[listBody](do(h, http.MethodGet, "/api/leaderboard?limit=3", "")).Entries, ShouldHaveLength, 3)
		})

		Convey("A replayed idempotency key returns the first id", func() {
			body := `{"email":"a@b.co","guesses":2,"elapsedSec":5,"consent":true}`
			first := do(h, http.MethodPost, "/api/leaderboard", body, api.HeaderIdempotencyKey, "abc")
			So(first.Code, ShouldEqual, http.StatusCreated)
			So(first.Header().Get(api.HeaderReplayed), ShouldBeEmpty)

			again := do(h, http.MethodPost, "/api/leaderboard", body, api.HeaderIdempotencyKey, "abc")
			So(again.Code, ShouldEqual, http.StatusCreated)
			So(again.Header().Get(api.HeaderReplayed), ShouldEqual, "true")
			So(decode[map[string]string](again)["id"], ShouldEqual, decode[map[string]string](first)["id"])
			So(decode[listBody](do(h, http.MethodGet, "/api/leaderboard", "")).Entries, ShouldHaveLength, 1)

			other := do(h, http.MethodPost, "/api/leaderboard",
				`{"email":"a@b.co","guesses":3,"elapsedSec":5,"consent":true}`, api.HeaderIdempotencyKey, "abc")
			So(other.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("Responses carry security headers", func() {
			w := do(h, http.MethodGet, "/api/leaderboard", "")
			So(w.Header().Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
		})

		Convey("Unknown routes are JSON 404s", func() {
			w := do(h, http.MethodGet, "/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[errBody](w).Code, ShouldEqual, "not_found")
		})
	})

	Convey("Given a store that is down", t, func() {
		h := api.NewServer(failingBoard{}).Handler()

		Convey("Reads and writes answer 500 without leaking the cause", func() {
			for _, w := range []*httptest.ResponseRecorder{
				do(h, http.MethodGet, "/api/leaderboard", ""),
				do(h, http.MethodPost, "/api/leaderboard", `{"email":"a@b.co","guesses":4,"elapsedSec":1,"consent":true}`),
			} {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode[errBody](w).Code, ShouldEqual, "service_unavailable")
				So(w.Body.String(), ShouldNotContainSubstring, "mongo")
			}
		})
	})

	Convey("Given service errors", t, func() {
		body := `{"email":"a@b.co","guesses":2,"elapsedSec":5,"consent":true}`
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrSubmissionInProgress, http.StatusConflict, "submission_in_progress"},
			{service.ErrIdempotencyMismatch, http.StatusUnprocessableEntity, "idempotency_mismatch"},
			{service.ErrConsentRequired, http.StatusBadRequest, "consent_required"},
			{service.ErrInvalidPayload, http.StatusBadRequest, "invalid_payload"},
			{errors.New("boom"), http.StatusInternalServerError, "service_unavailable"},
		}

		Convey("Each maps to its status and code", func() {
			for _, tc := range cases {
				h := api.NewServer(stubBoard{err: tc.err}).Handler()
				w := do(h, http.MethodPost, "/api/leaderboard", body, api.HeaderIdempotencyKey, "k")
				So(w.Code, ShouldEqual, tc.status)
				So(decode[errBody](w).Code, ShouldEqual, tc.code)
			}
		})
	})
}

func TestCatalogAndChallenge(t *testing.T) {
	Convey("Given a server with the sample catalog", t, func() {
		cat, err := catalog.Default()
		So(err, ShouldBeNil)
		svc := newService()
		defer svc.Stop()
		h := api.NewServer(svc,
			api.WithCatalog(cat, suggest.NewIndex(cat.Names())),
			api.WithPublicURL("https://arcade.example/"),
		).Handler()

		Convey("The catalog is listed", func() {
			w := do(h, http.MethodGet, "/api/catalog", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Patrick Mahomes")
		})

		Convey("Suggestions are ranked", func() {
			w := do(h, http.MethodGet, "/api/suggest?q=jo", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode[map[string]any](w)
			So(body["names"], ShouldContain, "Josh Allen")
			So(body["names"], ShouldContain, "Joe Burrow")

			empty := decode[map[string]any](do(h, http.MethodGet, "/api/suggest?q=", ""))
			So(empty["names"], ShouldBeEmpty)
		})

		Convey("Challenge codes render as PNG QR codes", func() {
			w := do(h, http.MethodGet, "/api/challenge/3f/qr", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
			So(w.Body.Bytes()[:4], ShouldResemble, []byte{0x89, 'P', 'N', 'G'})
		})

		Convey("Malformed challenge codes are rejected", func() {
			w := do(h, http.MethodGet, "/api/challenge/no-way!/qr", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode[errBody](w).Code, ShouldEqual, "invalid_challenge")
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a server with stats providers", t, func() {
		svc := newService()
		defer svc.Stop()
		h := api.NewServer(svc, api.WithStats("leaderboard", svc)).Handler()

		Convey("/healthz serves metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "witarcade_")
		})

		Convey("/stats reports each provider", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode[map[string]map[string]any](w)
			So(body["leaderboard"]["started"], ShouldEqual, true)
		})
	})
}

func TestPlayWebsocket(t *testing.T) {
	Convey("Given a server with play sessions", t, func() {
		cat, err := catalog.Default()
		So(err, ShouldBeNil)
		svc := newService()
		defer svc.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		mgr := play.NewManager(ctx, cat, play.WithIdleTimeout(0),
			play.WithSessionOptions(
				play.WithTickInterval(time.Hour),
				play.WithLeaderboard(svc),
				play.WithSuggester(suggest.NewIndex(cat.Names())),
			))
		defer mgr.Shutdown()

		srv := httptest.NewServer(api.NewServer(svc, api.WithSessions(mgr)).Handler())
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/play", nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		read := func(want string) map[string]any {
			for {
				_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				var m map[string]any
				So(conn.ReadJSON(&m), ShouldBeNil)
				if m["type"] == want {
					return m
				}
			}
		}

		Convey("A full round can be played and submitted", func() {
			// Challenge "0" targets the first catalog entry.
			So(conn.WriteJSON(play.ClientMessage{Type: "start", Challenge: "0"}), ShouldBeNil)
			So(read(play.TypeRoundStarted)["challenge"], ShouldEqual, "0")

			So(conn.WriteJSON(play.ClientMessage{Type: "guess", Text: "patrick mahomes"}), ShouldBeNil)
			So(read(play.TypeGuessResult)["state"], ShouldEqual, "won")
			over := read(play.TypeRoundOver)
			So(over["won"], ShouldEqual, true)

			So(conn.WriteJSON(play.ClientMessage{Type: "submit", Email: "winner@x.io", Consent: true}), ShouldBeNil)
			done := read(play.TypeScoreSubmitted)
			So(done["id"], ShouldNotBeEmpty)

			top, err := svc.ListLeaderboard(context.Background(), 10)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 1)
			So(top[0].Email, ShouldEqual, "winner@x.io")
			So(top[0].Guesses, ShouldEqual, 1)
		})

		Convey("Closing the socket ends the session", func() {
			So(waitUntil(func() bool { return mgr.Len() == 1 }), ShouldBeTrue)
			_ = conn.Close()
			So(waitUntil(func() bool { return mgr.Len() == 0 }), ShouldBeTrue)
		})
	})
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
