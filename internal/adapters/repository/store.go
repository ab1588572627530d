// Package repository persists leaderboard entries.
package repository

import (
	"context"

	"github.com/okian/witarcade/internal/domain/model"
)

// Store provides read/write access to leaderboard entries. Implementations
// keep two orderings: (guesses, elapsedSec, createdAt) ascending for the
// ranking and (email asc, createdAt desc) for per-user history.
type Store interface {
	// Insert writes one entry and returns its generated id. The entry's ID
	// field is ignored.
	Insert(ctx context.Context, e model.Entry) (string, error)

	// Top returns up to limit entries in ranking order.
	// Returns ErrInvalidLimit if limit < 1.
	Top(ctx context.Context, limit int) ([]model.Entry, error)

	// ByEmail returns up to limit entries for a normalized email, newest first.
	ByEmail(ctx context.Context, email string, limit int) ([]model.Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int64, error)

	// EnsureIndexes creates the ranking and history indexes if missing.
	EnsureIndexes(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Index names shared by every implementation.
const (
	RankIndex  = "guesses_1_elapsedSec_1_createdAt_1"
	EmailIndex = "email_1_createdAt_-1"
)
