package repository

import "errors"

// Sentinel kinds for leaderboard store errors.
var (
	// ErrUnavailable wraps every backend failure. Callers may retry.
	ErrUnavailable  = errors.New("leaderboard store unavailable")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrClosed       = errors.New("leaderboard store closed")
)
