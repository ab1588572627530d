package testscores

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/okian/witarcade/internal/client"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/logger"
)

// outcome is how the server answered one submission.
type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeReplayed
	outcomeRejected
	outcomeFailed
)

// submitScores sends plan with a worker pool. Replays go after every
// original has been answered so that the key is already complete.
func submitScores(ctx context.Context, cfg *Config, c *client.Client, plan []Score, stats *Stats) {
	log := logger.Get()
	log.Info(ctx, "submitting scores", logger.Int("count", len(plan)), logger.Int("workers", cfg.Workers))

	var first, replays []Score
	for _, s := range plan {
		if s.Kind == KindReplay {
			replays = append(replays, s)
		} else {
			first = append(first, s)
		}
	}

	var accepted, replayed, rejected, failed, unexpected int64
	run := func(batch []Score) {
		ch := make(chan Score, cfg.Workers*WorkerChannelMultiplier)
		var wg sync.WaitGroup
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for s := range ch {
					got := submitOne(ctx, c, s)
					switch got {
					case outcomeAccepted:
						atomic.AddInt64(&accepted, 1)
					case outcomeReplayed:
						atomic.AddInt64(&replayed, 1)
					case outcomeRejected:
						atomic.AddInt64(&rejected, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
					if got != want(s.Kind) {
						atomic.AddInt64(&unexpected, 1)
						if cfg.Verbose {
							log.Warn(ctx, "unexpected answer", logger.String("kind", string(s.Kind)), logger.String("key", s.Key))
						}
					}
				}
			}()
		}
	feed:
		for _, s := range batch {
			select {
			case <-ctx.Done():
				break feed
			case ch <- s:
			}
		}
		close(ch)
		wg.Wait()
	}

	run(first)
	run(replays)

	stats.Accepted = int(accepted)
	stats.Replayed = int(replayed)
	stats.Rejected = int(rejected)
	stats.Failed = int(failed)
	stats.Unexpected = int(unexpected)
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("replayed", stats.Replayed),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed))
}

func want(k Kind) outcome {
	switch k {
	case KindValid:
		return outcomeAccepted
	case KindReplay:
		return outcomeReplayed
	default:
		return outcomeRejected
	}
}

func submitOne(ctx context.Context, c *client.Client, s Score) outcome {
	res, err := c.Submit(ctx, s.Key, s.Submission)
	switch {
	case err == nil && res.Replayed:
		return outcomeReplayed
	case err == nil:
		return outcomeAccepted
	case errors.Is(err, model.ErrConsentRequired), errors.Is(err, model.ErrInvalidPayload):
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
