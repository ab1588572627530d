package play

import (
	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/round"
	"github.com/okian/witarcade/internal/domain/types"
)

// Message types sent to the player.
const (
	TypeRoundStarted   = "round_started"
	TypeSuggestions    = "suggestions"
	TypeGuessResult    = "guess_result"
	TypeGuessRejected  = "guess_rejected"
	TypeTick           = "tick"
	TypeRoundOver      = "round_over"
	TypeScoreSubmitted = "score_submitted"
	TypeError          = "error"
)

// Rejection and error codes.
const (
	CodeEntityNotFound     = "entity_not_found"
	CodeDuplicateGuess     = "duplicate_guess"
	CodeRoundOver          = "round_over"
	CodeEmptyGuess         = "empty_guess"
	CodeConsentRequired    = "consent_required"
	CodeInvalidPayload     = "invalid_payload"
	CodeServiceUnavailable = "service_unavailable"
	CodeRoundInProgress    = "round_in_progress"
	CodeAlreadySubmitted   = "already_submitted"
)

// Message is an output of a Session.
type Message interface{ MessageType() string }

// RoundStartedMessage announces a fresh round.
type RoundStartedMessage struct {
	Type       string `json:"type"`
	Challenge  string `json:"challenge"`
	MaxGuesses int    `json:"maxGuesses"`
	BlurPx     int    `json:"blurPx"`
}

// SuggestionsMessage answers a query.
type SuggestionsMessage struct {
	Type  string   `json:"type"`
	Query string   `json:"query"`
	Names []string `json:"names"`
}

// GuessResultMessage reports an accepted guess.
type GuessResultMessage struct {
	Type    string            `json:"type"`
	Record  round.GuessRecord `json:"record"`
	Guesses int               `json:"guesses"`
	State   round.State       `json:"state"`
	BlurPx  int               `json:"blurPx"`
}

// GuessRejectedMessage reports a guess that left the round unchanged.
type GuessRejectedMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
	Text string `json:"text"`
}

// TickMessage carries the stopwatch display value.
type TickMessage struct {
	Type       string `json:"type"`
	ElapsedSec int    `json:"elapsedSec"`
}

// RoundOverMessage reveals the target once the round is terminal.
type RoundOverMessage struct {
	Type       string         `json:"type"`
	Won        bool           `json:"won"`
	Target     catalog.Entity `json:"target"`
	Guesses    int            `json:"guesses"`
	ElapsedSec int            `json:"elapsedSec"`
	Challenge  string         `json:"challenge"`
}

// ScoreSubmittedMessage confirms a stored score with a refreshed board.
type ScoreSubmittedMessage struct {
	Type        string        `json:"type"`
	ID          string        `json:"id"`
	Leaderboard []types.Entry `json:"leaderboard"`
}

// ErrorMessage reports a request the session refused.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (RoundStartedMessage) MessageType() string   { return TypeRoundStarted }
func (SuggestionsMessage) MessageType() string    { return TypeSuggestions }
func (GuessResultMessage) MessageType() string    { return TypeGuessResult }
func (GuessRejectedMessage) MessageType() string  { return TypeGuessRejected }
func (TickMessage) MessageType() string           { return TypeTick }
func (RoundOverMessage) MessageType() string      { return TypeRoundOver }
func (ScoreSubmittedMessage) MessageType() string { return TypeScoreSubmitted }
func (ErrorMessage) MessageType() string          { return TypeError }
