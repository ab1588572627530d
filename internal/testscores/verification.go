package testscores

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/pkg/logger"
)

// Verification errors.
var (
	ErrOrdering = errors.New("leaderboard not properly sorted")
	ErrClamp    = errors.New("leaderboard limit not enforced")
	ErrCounts   = errors.New("answers do not match the plan")
)

// verifyOrdering checks fewest guesses, then fastest, then oldest.
func verifyOrdering(entries []types.Entry) error {
	for i := 1; i < len(entries); i++ {
		a, b := entries[i-1], entries[i]
		switch {
		case a.Guesses != b.Guesses:
			if a.Guesses > b.Guesses {
				return fmt.Errorf("%w: entry %d has fewer guesses than entry %d", ErrOrdering, i, i-1)
			}
		case a.ElapsedSec != b.ElapsedSec:
			if a.ElapsedSec > b.ElapsedSec {
				return fmt.Errorf("%w: entry %d is faster than entry %d", ErrOrdering, i, i-1)
			}
		case b.CreatedAt.Before(a.CreatedAt):
			return fmt.Errorf("%w: entry %d is older than entry %d", ErrOrdering, i, i-1)
		}
	}
	return nil
}

// verifyLimits probes the limit handling with oversized and junk values.
func verifyLimits(ctx context.Context, c *client.Client) ([]types.Entry, error) {
	big, err := c.ListRaw(ctx, "/api/leaderboard?limit=1000")
	if err != nil {
		return nil, err
	}
	if len(big) > maxLimit {
		return nil, fmt.Errorf("%w: limit=1000 returned %d entries", ErrClamp, len(big))
	}
	junk, err := c.ListRaw(ctx, "/api/leaderboard?limit=abc")
	if err != nil {
		return nil, err
	}
	if len(junk) > defaultLimit {
		return nil, fmt.Errorf("%w: limit=abc returned %d entries", ErrClamp, len(junk))
	}
	return big, nil
}

// verifyCounts compares answers against the plan.
func verifyCounts(plan []Score, stats *Stats) error {
	accepted, replayed, rejected := Expected(plan)
	if stats.Accepted != accepted || stats.Replayed != replayed || stats.Rejected != rejected || stats.Unexpected != 0 {
		return fmt.Errorf("%w: accepted %d/%d replayed %d/%d rejected %d/%d unexpected %d",
			ErrCounts, stats.Accepted, accepted, stats.Replayed, replayed, stats.Rejected, rejected, stats.Unexpected)
	}
	return nil
}

// displayTop logs the head of the leaderboard with masked emails.
func displayTop(ctx context.Context, entries []types.Entry, n int) {
	if len(entries) < n {
		n = len(entries)
	}
	for i := 0; i < n; i++ {
		e := entries[i].Masked()
		logger.Get().Info(ctx, "leaderboard",
			logger.Int("rank", i+1),
			logger.String("email", e.Email),
			logger.Int("guesses", e.Guesses),
			logger.String("time", types.FormatHMS(e.ElapsedSec)))
	}
}
