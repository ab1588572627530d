// Package service provides the leaderboard business service used by the
// HTTP API, the play sessions and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/witarcade/internal/adapters/repository"
	"github.com/okian/witarcade/internal/domain/dedupe"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/internal/domain/types"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/okian/witarcade/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultLimit    = 10
	defaultMaxLimit = 50
	defaultKeys     = 10_000
	stopTimeout     = 5 * time.Second
)

// Service records and serves leaderboard entries.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper

	defaultLimit int
	maxLimit     int
	dedupeSize   int
	now          func() time.Time

	stampMu   sync.Mutex
	lastStamp time.Time

	started bool
	logger  logger.Logger
}

// Receipt is the result of a stored or replayed submission.
type Receipt struct {
	ID       string
	Replayed bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the leaderboard store. Without it Start uses an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits sets the default and maximum leaderboard page sizes.
func WithLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 && max >= def {
			s.defaultLimit = def
			s.maxLimit = max
		}
	}
}

// WithIdempotencySize bounds the idempotency key cache.
func WithIdempotencySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithClock replaces time.Now for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		defaultLimit: defaultLimit,
		maxLimit:     defaultMaxLimit,
		dedupeSize:   defaultKeys,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the store and its indexes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("leaderboard")
	}

	if s.store == nil {
		s.store = repository.NewTreapStore(ctx)
		s.logger.Info(ctx, "using in-memory leaderboard store")
	}
	if err := s.store.EnsureIndexes(ctx); err != nil {
		s.logger.Error(ctx, "ensure indexes failed", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("defaultLimit", s.defaultLimit),
		logger.Int("maxLimit", s.maxLimit),
		logger.Int("idempotencySize", s.dedupeSize),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.store.Close(ctx); err != nil {
		s.logger.Warn(ctx, "closing store failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// SubmitScore validates and stores one submission, returning its id.
func (s *Service) SubmitScore(ctx context.Context, sub model.Submission) (string, error) {
	r, err := s.SubmitScoreIdempotent(ctx, "", sub)
	return r.ID, err
}

// SubmitScoreIdempotent is SubmitScore with an optional idempotency key. A
// repeated key with the same score returns the original id without writing.
func (s *Service) SubmitScoreIdempotent(ctx context.Context, key string, sub model.Submission) (Receipt, error) {
	if !s.running() {
		return Receipt{}, ErrNotStarted
	}

	score, err := sub.Validate()
	if err != nil {
		reason := "invalid_payload"
		if errors.Is(err, ErrConsentRequired) {
			reason = "consent_required"
		}
		metrics.RecordSubmissionRejected(reason)
		return Receipt{}, err
	}

	if key != "" {
		claim := s.deduper.Claim(ctx, key, fingerprint(score))
		metrics.UpdateIdempotencyKeys(int(s.deduper.Size()))
		switch claim.Outcome {
		case dedupe.Replayed:
			metrics.RecordSubmission(metrics.SubmissionReplayed)
			return Receipt{ID: claim.ID, Replayed: true}, nil
		case dedupe.InFlight:
			metrics.RecordSubmissionRejected("in_progress")
			return Receipt{}, ErrSubmissionInProgress
		case dedupe.Mismatch:
			metrics.RecordSubmissionRejected("idempotency_mismatch")
			return Receipt{}, ErrIdempotencyMismatch
		}
	}

	entry := model.Entry{
		Email:      score.Email,
		Guesses:    score.Guesses,
		ElapsedSec: score.ElapsedSec,
		Consent:    true,
		CreatedAt:  s.stamp(),
	}
	id, err := s.store.Insert(ctx, entry)
	if err != nil {
		if key != "" {
			s.deduper.Release(ctx, key)
		}
		s.logger.Error(ctx, "leaderboard insert failed", logger.Error(err))
		metrics.RecordSubmissionRejected("store_error")
		return Receipt{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if key != "" {
		s.deduper.Complete(ctx, key, id)
	}

	metrics.RecordSubmission(metrics.SubmissionAccepted)
	s.logger.Debug(ctx, "score stored",
		logger.String("id", id),
		logger.Int("guesses", entry.Guesses),
		logger.Int("elapsedSec", entry.ElapsedSec))
	return Receipt{ID: id}, nil
}

// stamp returns a server timestamp at millisecond precision that never goes
// backwards between calls.
func (s *Service) stamp() time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

func fingerprint(sc model.Score) string {
	return sc.Email + "|" + strconv.Itoa(sc.Guesses) + "|" + strconv.Itoa(sc.ElapsedSec)
}

// Limit normalizes a requested page size: non-positive means the default and
// anything above the maximum is capped.
func (s *Service) Limit(requested int) int {
	return clampLimit(requested, s.defaultLimit, s.maxLimit)
}

// ListLeaderboard returns the best entries, best first.
func (s *Service) ListLeaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	metrics.RecordLeaderboardQuery()

	entries, err := s.store.Top(ctx, s.Limit(limit))
	if err != nil {
		s.logger.Error(ctx, "leaderboard fetch failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return public(entries), nil
}

// History returns an email's entries, newest first.
func (s *Service) History(ctx context.Context, email string, limit int) ([]types.Entry, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	entries, err := s.store.ByEmail(ctx, model.NormalizeEmail(email), s.Limit(limit))
	if err != nil {
		s.logger.Error(ctx, "history fetch failed", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return public(entries), nil
}

func public(entries []model.Entry) []types.Entry {
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Public()
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"defaultLimit":    s.defaultLimit,
		"maxLimit":        s.maxLimit,
		"idempotencySize": s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if n, err := s.store.Count(ctx); err == nil {
		stats["entries"] = n
		metrics.UpdateLeaderboardEntries(n)
	} else {
		stats["entries"] = nil
	}
	stats["idempotencyKeys"] = s.deduper.Size()
	return stats
}
