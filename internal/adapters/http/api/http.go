// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	service "github.com/okian/witarcade/internal/app"
	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/internal/play"
	"github.com/okian/witarcade/pkg/logger"
)

// Leaderboard is what the HTTP layer needs from the leaderboard service.
type Leaderboard interface {
	SubmitScoreIdempotent(ctx context.Context, key string, sub model.Submission) (service.Receipt, error)
	ListLeaderboard(ctx context.Context, limit int) ([]types.Entry, error)
}

// Catalog exposes the entity list and autocomplete.
type Catalog interface {
	Entities() []catalog.Entity
}

// Suggester answers autocomplete queries.
type Suggester interface {
	Query(q string) []string
}

// Sessions opens and closes play sessions.
type Sessions interface {
	Open() *play.Session
	Close(id string)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	catalogHandler     *CatalogHandler
	playHandler        *PlayHandler
	challengeHandler   *ChallengeHandler
}

// Option configures optional routes.
type Option func(*options)

type options struct {
	catalog   Catalog
	suggest   Suggester
	sessions  Sessions
	publicURL string
	stats     map[string]StatsProvider
	log       logger.Logger
}

// WithCatalog enables /api/catalog and /api/suggest.
func WithCatalog(c Catalog, s Suggester) Option {
	return func(o *options) {
		o.catalog = c
		o.suggest = s
	}
}

// WithSessions enables the /api/play websocket.
func WithSessions(s Sessions) Option {
	return func(o *options) { o.sessions = s }
}

// WithPublicURL sets the base URL encoded into challenge QR codes.
func WithPublicURL(u string) Option {
	return func(o *options) { o.publicURL = u }
}

// WithStats adds a named section to /stats.
func WithStats(name string, p StatsProvider) Option {
	return func(o *options) {
		if p != nil {
			o.stats[name] = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(board Leaderboard, opts ...Option) *Server {
	o := &options{stats: make(map[string]StatsProvider)}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("api")
	}
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(o.stats),
		leaderboardHandler: NewLeaderboardHandler(board, o.log),
		challengeHandler:   NewChallengeHandler(o.publicURL),
	}
	if o.catalog != nil {
		s.catalogHandler = NewCatalogHandler(o.catalog, o.suggest)
	}
	if o.sessions != nil {
		s.playHandler = NewPlayHandler(o.sessions, o.log)
	}
	return s
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(router *httprouter.Router) {
	router.GET("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	router.GET("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	router.GET("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	router.POST("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandlePostLeaderboard, "leaderboard"))
	router.GET("/api/challenge/:code/qr", MetricsMiddleware(s.challengeHandler.HandleQR, "challenge_qr"))
	if s.catalogHandler != nil {
		router.GET("/api/catalog", MetricsMiddleware(s.catalogHandler.HandleCatalog, "catalog"))
		router.GET("/api/suggest", MetricsMiddleware(s.catalogHandler.HandleSuggest, "suggest"))
	}
	if s.playHandler != nil {
		router.GET("/api/play", MetricsMiddleware(s.playHandler.HandlePlay, "play"))
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}

// Handler returns a router with every route registered behind the common
// response headers.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	s.Register(router)
	return SecurityHeaders(router)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
