// Package testscores is a load generator for the leaderboard API. It
// submits valid, invalid and replayed scores concurrently and checks the
// server's answers and the resulting ordering.
package testscores

import (
	"time"

	"github.com/okian/witarcade/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumScores      int           // Number of scores to generate and submit
	InvalidPercent int           // Share of deliberately invalid submissions
	Replays        int           // Number of valid submissions re-sent with the same key
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Output file for generated scores
	Seed           uint64        // Generator seed; 0 picks one
	Verbose        bool          // Enable verbose logging
}

// Kind labels a generated submission.
type Kind string

// Generated submission kinds.
const (
	KindValid             Kind = "valid"
	KindNoConsent         Kind = "no_consent"
	KindBadEmail          Kind = "bad_email"
	KindZeroGuesses       Kind = "zero_guesses"
	KindNegativeElapsed   Kind = "negative_elapsed"
	KindFractionalGuesses Kind = "fractional_guesses"
	KindReplay            Kind = "replay"
)

// Score is one planned submission.
type Score struct {
	Key        string           `json:"key"`
	Kind       Kind             `json:"kind"`
	Submission model.Submission `json:"submission"`
}

// Stats holds run statistics.
type Stats struct {
	Generated   int
	Accepted    int
	Replayed    int
	Rejected    int
	Failed      int
	Unexpected  int
	Leaderboard int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
