// Package round implements the guess-acceptance state machine for a single
// round: target selection, guess resolution, feedback and the terminal rules.
package round

import (
	"strings"
	"time"

	"github.com/okian/witarcade/internal/domain/catalog"
	"github.com/okian/witarcade/internal/domain/scoring"
)

// MaxGuesses is the number of guesses allowed per round.
const MaxGuesses = 6

// BlurLevels maps guess count to portrait blur in pixels.
var BlurLevels = [MaxGuesses + 1]int{24, 18, 12, 8, 4, 2, 0}

// State is the round lifecycle.
type State int

// Round states. Won and Lost are terminal.
const (
	InProgress State = iota
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no more guesses are accepted.
func (s State) Terminal() bool { return s == Won || s == Lost }

// Catalog is what a round needs from the entity set.
type Catalog interface {
	Resolve(raw string) (catalog.Entity, error)
	Pick(seed uint64) catalog.Entity
}

// GuessRecord is one accepted guess. IsNew is presentation-only.
type GuessRecord struct {
	Entity   catalog.Entity   `json:"entity"`
	Feedback scoring.Feedback `json:"feedback"`
	IsNew    bool             `json:"isNew"`
}

// Option configures a Round.
type Option func(*Round)

// WithClock replaces time.Now for elapsed-time accounting.
func WithClock(now func() time.Time) Option {
	return func(r *Round) {
		if now != nil {
			r.now = now
		}
	}
}

// Round is one play session from target selection to a terminal state.
// Not safe for concurrent use; a single owner drives it.
type Round struct {
	cat       Catalog
	seed      uint64
	target    catalog.Entity
	records   []GuessRecord
	guessed   map[catalog.ID]struct{}
	state     State
	now       func() time.Time
	startedAt time.Time
	endedAt   time.Time
}

// New starts a round whose target is chosen by seed.
func New(cat Catalog, seed uint64, opts ...Option) *Round {
	r := &Round{
		cat:     cat,
		seed:    seed,
		records: make([]GuessRecord, 0, MaxGuesses),
		guessed: make(map[catalog.ID]struct{}, MaxGuesses),
		state:   InProgress,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.target = cat.Pick(seed)
	r.startedAt = r.now()
	return r
}

// Guess resolves raw text and applies it. On error the round is unchanged.
func (r *Round) Guess(raw string) (GuessRecord, error) {
	if r.state.Terminal() {
		return GuessRecord{}, ErrRoundOver
	}
	if strings.TrimSpace(raw) == "" {
		return GuessRecord{}, ErrEmptyGuess
	}
	e, err := r.cat.Resolve(raw)
	if err != nil {
		return GuessRecord{}, err
	}
	if _, dup := r.guessed[e.ID]; dup {
		return GuessRecord{}, ErrDuplicateGuess
	}

	rec := GuessRecord{Entity: e, Feedback: scoring.Score(e, r.target), IsNew: true}
	r.records = append(r.records, rec)
	r.guessed[e.ID] = struct{}{}

	switch {
	case rec.Feedback.NameMatch:
		r.finish(Won)
	case len(r.records) >= MaxGuesses:
		r.finish(Lost)
	}
	return rec, nil
}

func (r *Round) finish(s State) {
	r.state = s
	r.endedAt = r.now()
}

// ClearNew drops the IsNew flag from every record. Reports whether any flag
// was set.
func (r *Round) ClearNew() bool {
	changed := false
	for i := range r.records {
		if r.records[i].IsNew {
			r.records[i].IsNew = false
			changed = true
		}
	}
	return changed
}

// State returns the current state.
func (r *Round) State() State { return r.state }

// Target returns the entity to be guessed.
func (r *Round) Target() catalog.Entity { return r.target }

// Seed returns the seed the target was picked with.
func (r *Round) Seed() uint64 { return r.seed }

// Challenge returns the shareable code for this round's target.
func (r *Round) Challenge() string { return EncodeChallenge(r.seed) }

// GuessCount returns the number of accepted guesses.
func (r *Round) GuessCount() int { return len(r.records) }

// Records returns a copy of the accepted guesses in order.
func (r *Round) Records() []GuessRecord {
	out := make([]GuessRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Guessed reports whether id has been guessed this round.
func (r *Round) Guessed(id catalog.ID) bool {
	_, ok := r.guessed[id]
	return ok
}

// Elapsed is the time since the round started, frozen once terminal.
func (r *Round) Elapsed() time.Duration {
	if r.state.Terminal() {
		return r.endedAt.Sub(r.startedAt)
	}
	return r.now().Sub(r.startedAt)
}

// ElapsedSeconds is Elapsed floored to whole seconds.
func (r *Round) ElapsedSeconds() int {
	d := r.Elapsed()
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// BlurPx is the portrait blur for the current guess count; zero once terminal.
func (r *Round) BlurPx() int {
	if r.state.Terminal() {
		return 0
	}
	n := len(r.records)
	if n >= len(BlurLevels) {
		n = len(BlurLevels) - 1
	}
	return BlurLevels[n]
}
