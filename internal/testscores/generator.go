package testscores

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/witarcade/internal/domain/model"
)

var invalidKinds = []Kind{KindNoConsent, KindBadEmail, KindZeroGuesses, KindNegativeElapsed, KindFractionalGuesses}

// Generate plans n submissions followed by replays of the first valid ones.
func Generate(rng *rand.Rand, n, invalidPercent, replays int) []Score {
	out := make([]Score, 0, n+replays)
	var valid []Score

	for i := 0; i < n; i++ {
		guesses := 1 + rng.IntN(maxGuesses)
		elapsed := rng.IntN(maxElapsedSec)
		email := "load-" + uuid.NewString() + "@test.local"
		s := Score{Key: uuid.NewString(), Kind: KindValid,
			Submission: model.NewSubmission(email, guesses, elapsed, true)}

		if rng.IntN(percent) < invalidPercent {
			s.Kind = invalidKinds[rng.IntN(len(invalidKinds))]
			s.Submission = corrupt(s.Kind, s.Submission)
		} else {
			valid = append(valid, s)
		}
		out = append(out, s)
	}

	for i := 0; i < replays && i < len(valid); i++ {
		r := valid[i]
		r.Kind = KindReplay
		out = append(out, r)
	}
	return out
}

func corrupt(kind Kind, sub model.Submission) model.Submission {
	switch kind {
	case KindNoConsent:
		sub.Consent = false
	case KindBadEmail:
		sub.Email = "no-at-sign.test.local"
	case KindZeroGuesses:
		sub.Guesses = 0
	case KindNegativeElapsed:
		sub.ElapsedSec = -1
	case KindFractionalGuesses:
		sub.Guesses = 2.5
	}
	return sub
}

// Expected counts how the server should answer plan.
func Expected(plan []Score) (accepted, replayed, rejected int) {
	for _, s := range plan {
		switch s.Kind {
		case KindValid:
			accepted++
		case KindReplay:
			replayed++
		default:
			rejected++
		}
	}
	return accepted, replayed, rejected
}
