package service

import (
	"errors"

	"github.com/okian/witarcade/internal/domain/model"
)

// Sentinel kinds returned by the leaderboard service.
var (
	// ErrInvalidPayload and ErrConsentRequired are validation failures; nothing is written.
	ErrInvalidPayload  = model.ErrInvalidPayload
	ErrConsentRequired = model.ErrConsentRequired

	// ErrServiceUnavailable wraps store failures. Retryable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrSubmissionInProgress means the same idempotency key is still being processed.
	ErrSubmissionInProgress = errors.New("submission in progress")

	// ErrIdempotencyMismatch means the key was already used for a different score.
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different payload")

	ErrNotStarted = errors.New("service not started")
)
