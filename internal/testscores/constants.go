package testscores

// Score generation ranges.
const (
	maxGuesses    = 6
	maxElapsedSec = 600
	percent       = 100
)

// Server contract checked by the verifier.
const (
	defaultLimit = 10
	maxLimit     = 50
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)
