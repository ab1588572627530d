// Package scoring compares a guessed entity with the round's target and
// reports per-attribute feedback.
package scoring

import (
	"github.com/okian/witarcade/internal/domain/catalog"
)

// Hint says where the target's ordinal value sits relative to the guess.
type Hint string

// Hint values. HintHigher means the target is above the guess.
const (
	HintLower   Hint = "lower"
	HintCorrect Hint = "correct"
	HintHigher  Hint = "higher"
)

// Feedback is the derived comparison of one guess against the target.
type Feedback struct {
	NameMatch       bool `json:"nameMatch"`
	ConferenceMatch bool `json:"conferenceMatch"`
	TeamMatch       bool `json:"teamMatch"`
	PositionMatch   bool `json:"positionMatch"`
	NumberHint      Hint `json:"numberHint"`
	AgeHint         Hint `json:"ageHint"`
}

// Score compares guess to target. Pure; the same inputs always give the same
// Feedback.
func Score(guess, target catalog.Entity) Feedback {
	return Feedback{
		NameMatch:       guess.ID == target.ID,
		ConferenceMatch: guess.Conference == target.Conference,
		TeamMatch:       guess.Team == target.Team,
		PositionMatch:   guess.Positions.Overlaps(target.Positions),
		NumberHint:      Compare(guess.Number, target.Number),
		AgeHint:         Compare(guess.Age, target.Age),
	}
}

// Compare returns the ordinal hint for one attribute.
func Compare(guess, target int) Hint {
	switch {
	case guess == target:
		return HintCorrect
	case guess < target:
		return HintHigher
	default:
		return HintLower
	}
}

// Invert swaps higher and lower. Compare(a, b) == Invert(Compare(b, a)).
func (h Hint) Invert() Hint {
	switch h {
	case HintHigher:
		return HintLower
	case HintLower:
		return HintHigher
	default:
		return h
	}
}

// Arrow renders the hint for terminals.
func (h Hint) Arrow() string {
	switch h {
	case HintHigher:
		return "↑"
	case HintLower:
		return "↓"
	case HintCorrect:
		return "✓"
	default:
		return "?"
	}
}
