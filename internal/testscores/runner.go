package testscores

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
	topToDisplay        = 10
)

// Run executes a complete load run and returns its statistics. The error
// is non-nil when any check fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Info(ctx, "starting leaderboard load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("scores", cfg.NumScores),
		logger.Int("invalidPercent", cfg.InvalidPercent),
		logger.Int("replays", cfg.Replays),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed))

	c := client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout))
	if err := c.Ping(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	plan := Generate(rand.New(rand.NewPCG(seed, seed>>1)), cfg.NumScores, cfg.InvalidPercent, cfg.Replays)
	stats.Generated = len(plan)

	submitScores(ctx, cfg, c, plan, stats)

	top, err := verifyLimits(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("limit verification failed: %w", err)
	}
	stats.Leaderboard = len(top)
	if err := verifyOrdering(top); err != nil {
		return stats, err
	}
	displayTop(ctx, top, topToDisplay)

	if cfg.OutputFile != "" {
		if err := saveScores(cfg.OutputFile, plan); err != nil {
			log.Warn(ctx, "failed to save scores", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if err := verifyCounts(plan, stats); err != nil {
		return stats, err
	}
	log.Info(ctx, "test completed successfully")
	return stats, nil
}

func saveScores(filename string, plan []Score) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Generated) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("replayed", stats.Replayed),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("unexpected", stats.Unexpected),
		logger.Int("leaderboardEntries", stats.Leaderboard),
		logger.Duration("duration", stats.Duration),
		logger.Float64("submissionsPerSecond", perSecond))
}
