// Package play hosts interactive rounds. A Session consumes typed events
// from any transport and emits typed messages, so the websocket handler and
// the terminal client share the same round logic.
package play

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/internal/domain/round"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/okian/witarcade/pkg/metrics"
)

// ErrSessionClosed is returned by Send once the session has stopped.
var ErrSessionClosed = errors.New("session closed")

// Default session tuning.
const (
	DefaultClearNewAfter = 800 * time.Millisecond
	eventBuffer          = 16
	messageBuffer        = 64
	internalBuffer       = 4
)

// Leaderboard stores finished rounds. Errors wrapping
// model.ErrConsentRequired or model.ErrInvalidPayload are reported to the
// player by code; anything else is treated as unavailable.
type Leaderboard interface {
	SubmitScore(ctx context.Context, sub model.Submission) (string, error)
	ListLeaderboard(ctx context.Context, limit int) ([]types.Entry, error)
}

// Suggester answers autocomplete queries.
type Suggester interface {
	Query(q string) []string
}

// Session runs one player's rounds on a single goroutine.
type Session struct {
	id      string
	cat     round.Catalog
	suggest Suggester
	board   Leaderboard
	log     logger.Logger

	tickInterval  time.Duration
	clearNewAfter time.Duration
	now           func() time.Time

	events    chan Event
	internal  chan Event
	out       chan Message
	done      chan struct{}
	closeOnce sync.Once

	lastActive atomic.Int64

	// owned by Run
	round      *round.Round
	generation int
	submitted  bool
	stopwatch  *round.Stopwatch
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLeaderboard enables score submission.
func WithLeaderboard(b Leaderboard) SessionOption {
	return func(s *Session) { s.board = b }
}

// WithSuggester enables autocomplete.
func WithSuggester(sg Suggester) SessionOption {
	return func(s *Session) { s.suggest = sg }
}

// WithTickInterval sets how often tick messages are sent while a round runs.
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithClearNewAfter sets how long a fresh guess keeps its IsNew flag.
func WithClearNewAfter(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.clearNewAfter = d
		}
	}
}

// WithSessionClock replaces time.Now for round timing.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionLogger sets the logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession creates an idle session. Call Run to start processing.
func NewSession(cat round.Catalog, opts ...SessionOption) *Session {
	s := &Session{
		id:            uuid.NewString(),
		cat:           cat,
		tickInterval:  round.DefaultTickInterval,
		clearNewAfter: DefaultClearNewAfter,
		now:           time.Now,
		events:        make(chan Event, eventBuffer),
		internal:      make(chan Event, internalBuffer),
		out:           make(chan Message, messageBuffer),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("play")
	}
	s.stopwatch = round.NewStopwatch(s.tickInterval)
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Messages is closed when Run returns.
func (s *Session) Messages() <-chan Message { return s.out }

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastActive is the time of the last event received.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

func (s *Session) touch() { s.lastActive.Store(time.Now().UnixNano()) }

// Send delivers an event to the session loop.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		s.touch()
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	defer s.closeOnce.Do(func() {
		s.stopwatch.Stop()
		close(s.done)
		close(s.out)
	})

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		case ev := <-s.internal:
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case StartRequested:
		s.start(ctx, e)
	case QueryChanged:
		s.query(ctx, e)
	case GuessSubmitted:
		s.guess(ctx, e)
	case ScoreSubmitRequested:
		s.submit(ctx, e)
	case tickEvent:
		if s.round != nil && !s.round.State().Terminal() {
			s.offer(TickMessage{Type: TypeTick, ElapsedSec: s.round.ElapsedSeconds()})
		}
	case clearNewEvent:
		if s.round != nil && e.generation == s.generation {
			s.round.ClearNew()
		}
	}
}

func (s *Session) start(ctx context.Context, e StartRequested) {
	seed := round.NewSeed()
	if e.Challenge != "" {
		parsed, err := round.ParseChallenge(e.Challenge)
		if err != nil {
			s.emit(ctx, ErrorMessage{Type: TypeError, Code: CodeInvalidPayload, Message: err.Error()})
			return
		}
		seed = parsed
	}

	s.stopwatch.Stop()
	s.generation++
	s.round = round.New(s.cat, seed, round.WithClock(s.now))
	s.submitted = false
	s.stopwatch.Start(ctx, func(elapsed time.Duration) {
		s.post(tickEvent{elapsed: elapsed})
	})
	metrics.RecordRoundStarted()

	s.log.Debug(ctx, "round started",
		logger.String("session", s.id),
		logger.String("challenge", s.round.Challenge()))
	s.emit(ctx, RoundStartedMessage{
		Type:       TypeRoundStarted,
		Challenge:  s.round.Challenge(),
		MaxGuesses: round.MaxGuesses,
		BlurPx:     s.round.BlurPx(),
	})
}

func (s *Session) query(ctx context.Context, e QueryChanged) {
	names := []string{}
	if s.suggest != nil {
		if got := s.suggest.Query(e.Text); got != nil {
			names = got
		}
	}
	s.emit(ctx, SuggestionsMessage{Type: TypeSuggestions, Query: e.Text, Names: names})
}

func (s *Session) guess(ctx context.Context, e GuessSubmitted) {
	if s.round == nil {
		s.emit(ctx, GuessRejectedMessage{Type: TypeGuessRejected, Code: CodeRoundOver, Text: "no round in progress"})
		return
	}

	rec, err := s.round.Guess(e.Text)
	if err != nil {
		code := rejectionCode(err)
		metrics.RecordGuess(code)
		s.emit(ctx, GuessRejectedMessage{Type: TypeGuessRejected, Code: code, Text: err.Error()})
		return
	}
	metrics.RecordGuess("accepted")

	gen := s.generation
	time.AfterFunc(s.clearNewAfter, func() { s.post(clearNewEvent{generation: gen}) })

	state := s.round.State()
	s.emit(ctx, GuessResultMessage{
		Type:    TypeGuessResult,
		Record:  rec,
		Guesses: s.round.GuessCount(),
		State:   state,
		BlurPx:  s.round.BlurPx(),
	})

	if !state.Terminal() {
		return
	}
	s.stopwatch.Stop()
	outcome := metrics.RoundLost
	if state == round.Won {
		outcome = metrics.RoundWon
	}
	metrics.RecordRoundFinished(outcome)
	s.emit(ctx, RoundOverMessage{
		Type:       TypeRoundOver,
		Won:        state == round.Won,
		Target:     s.round.Target(),
		Guesses:    s.round.GuessCount(),
		ElapsedSec: s.round.ElapsedSeconds(),
		Challenge:  s.round.Challenge(),
	})
}

func rejectionCode(err error) string {
	switch {
	case errors.Is(err, round.ErrEntityNotFound):
		return CodeEntityNotFound
	case errors.Is(err, round.ErrDuplicateGuess):
		return CodeDuplicateGuess
	case errors.Is(err, round.ErrEmptyGuess):
		return CodeEmptyGuess
	default:
		return CodeRoundOver
	}
}

func (s *Session) submit(ctx context.Context, e ScoreSubmitRequested) {
	switch {
	case s.round == nil || !s.round.State().Terminal():
		s.emit(ctx, ErrorMessage{Type: TypeError, Code: CodeRoundInProgress, Message: "finish the round before submitting"})
		return
	case s.submitted:
		s.emit(ctx, ErrorMessage{Type: TypeError, Code: CodeAlreadySubmitted, Message: "score already submitted"})
		return
	case s.board == nil:
		s.emit(ctx, ErrorMessage{Type: TypeError, Code: CodeServiceUnavailable, Message: "leaderboard unavailable"})
		return
	}

	sub := model.Submission{
		Email:      e.Email,
		Guesses:    s.round.GuessCount(),
		ElapsedSec: s.round.ElapsedSeconds(),
		Consent:    e.Consent,
	}
	id, err := s.board.SubmitScore(ctx, sub)
	if err != nil {
		code, msg := CodeServiceUnavailable, "leaderboard unavailable"
		switch {
		case errors.Is(err, model.ErrConsentRequired):
			code, msg = CodeConsentRequired, err.Error()
		case errors.Is(err, model.ErrInvalidPayload):
			code, msg = CodeInvalidPayload, err.Error()
		default:
			s.log.Warn(ctx, "score submission failed", logger.String("session", s.id), logger.Error(err))
		}
		s.emit(ctx, ErrorMessage{Type: TypeError, Code: code, Message: msg})
		return
	}
	s.submitted = true

	entries, err := s.board.ListLeaderboard(ctx, 0)
	if err != nil {
		s.log.Warn(ctx, "leaderboard refresh failed", logger.String("session", s.id), logger.Error(err))
	}
	masked := make([]types.Entry, len(entries))
	for i, entry := range entries {
		masked[i] = entry.Masked()
	}
	s.emit(ctx, ScoreSubmittedMessage{Type: TypeScoreSubmitted, ID: id, Leaderboard: masked})
}

// post queues an internal event without blocking; a full queue drops it.
func (s *Session) post(ev Event) {
	select {
	case s.internal <- ev:
	default:
	}
}

// emit blocks until the message is queued or ctx ends.
func (s *Session) emit(ctx context.Context, m Message) {
	select {
	case s.out <- m:
	case <-ctx.Done():
	}
}

// offer queues a message only if there is room.
func (s *Session) offer(m Message) {
	select {
	case s.out <- m:
	default:
	}
}
