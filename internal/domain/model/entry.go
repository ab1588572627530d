// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/okian/witarcade/internal/domain/types"
)

// maxExactInt is the largest integer a JSON number carries without loss.
const maxExactInt = 1 << 53

// Entry is one persisted leaderboard row. Created once, never mutated.
type Entry struct {
	ID         string
	Email      string // trimmed, lowercase
	Guesses    int    // > 0
	ElapsedSec int    // >= 0
	Consent    bool   // always true once stored
	CreatedAt  time.Time
}

// Public returns the fields exposed to leaderboard readers.
func (e Entry) Public() types.Entry {
	return types.Entry{
		Email:      e.Email,
		Guesses:    e.Guesses,
		ElapsedSec: e.ElapsedSec,
		CreatedAt:  e.CreatedAt,
	}
}

// Less orders entries for the leaderboard: fewer guesses, then less time,
// then earlier submission.
func Less(a, b Entry) bool {
	if a.Guesses != b.Guesses {
		return a.Guesses < b.Guesses
	}
	if a.ElapsedSec != b.ElapsedSec {
		return a.ElapsedSec < b.ElapsedSec
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Submission is a score submission as received from a client. Fields are
// loosely typed so that the exact client payload can be judged.
type Submission struct {
	Email      any `json:"email"`
	Guesses    any `json:"guesses"`
	ElapsedSec any `json:"elapsedSec"`
	Consent    any `json:"consent"`
}

// NewSubmission builds a Submission from typed values.
func NewSubmission(email string, guesses, elapsedSec int, consent bool) Submission {
	return Submission{Email: email, Guesses: guesses, ElapsedSec: elapsedSec, Consent: consent}
}

// Score is a validated submission.
type Score struct {
	Email      string
	Guesses    int
	ElapsedSec int
}

// Validate checks consent first, then the remaining fields, and returns the
// normalized score.
func (s Submission) Validate() (Score, error) {
	if !truthy(s.Consent) {
		return Score{}, ErrConsentRequired
	}
	email, ok := s.Email.(string)
	if !ok || !strings.Contains(email, "@") {
		return Score{}, ErrInvalidPayload
	}
	guesses, ok := integer(s.Guesses)
	if !ok || guesses <= 0 {
		return Score{}, ErrInvalidPayload
	}
	elapsed, ok := integer(s.ElapsedSec)
	if !ok || elapsed < 0 {
		return Score{}, ErrInvalidPayload
	}
	return Score{
		Email:      NormalizeEmail(email),
		Guesses:    guesses,
		ElapsedSec: elapsed,
	}, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// truthy follows loose client semantics: false, 0, "", null and NaN are
// false; every other value, including "false", is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	default:
		return true
	}
}

// integer accepts only numeric values with no fractional part.
func integer(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		if t > maxExactInt || t < -maxExactInt {
			return 0, false
		}
		return int(t), true
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	case float32:
		f = float64(t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(f), true
}
