package model

import "errors"

// Validation failures for score submissions. Not retryable.
var (
	ErrConsentRequired = errors.New("consent required")
	ErrInvalidPayload  = errors.New("invalid payload")
)
