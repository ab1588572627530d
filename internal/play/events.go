package play

import (
	"strings"
	"time"
)

// Event is an input to a Session. Transports translate their own framing
// into these values.
type Event interface{ event() }

// StartRequested resets the session and starts a new round. An empty
// Challenge draws a random target.
type StartRequested struct{ Challenge string }

// QueryChanged asks for autocomplete suggestions.
type QueryChanged struct{ Text string }

// GuessSubmitted submits a guess by name.
type GuessSubmitted struct{ Text string }

// ScoreSubmitRequested records the finished round on the leaderboard.
// Consent is passed through untyped so that truthiness is decided by the
// submission validator.
type ScoreSubmitRequested struct {
	Email   string
	Consent any
}

type tickEvent struct{ elapsed time.Duration }

type clearNewEvent struct{ generation int }

func (StartRequested) event()       {}
func (QueryChanged) event()         {}
func (GuessSubmitted) event()       {}
func (ScoreSubmitRequested) event() {}
func (tickEvent) event()            {}
func (clearNewEvent) event()        {}

// ClientMessage is the JSON frame a remote player sends.
type ClientMessage struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	Text      string `json:"text,omitempty"`
	Email     string `json:"email,omitempty"`
	Consent   any    `json:"consent,omitempty"`
}

// Event converts the frame to a session event. Unknown types yield false.
func (m ClientMessage) Event() (Event, bool) {
	switch strings.ToLower(strings.TrimSpace(m.Type)) {
	case "start":
		return StartRequested{Challenge: m.Challenge}, true
	case "query":
		return QueryChanged{Text: m.Text}, true
	case "guess":
		return GuessSubmitted{Text: m.Text}, true
	case "submit":
		return ScoreSubmitRequested{Email: m.Email, Consent: m.Consent}, true
	default:
		return nil, false
	}
}
