package round

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is how often a running Stopwatch reports.
const DefaultTickInterval = 250 * time.Millisecond

// Stopwatch periodically reports elapsed time until stopped. It only drives
// display; round timing comes from Round.Elapsed.
type Stopwatch struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewStopwatch returns a stopped Stopwatch. Non-positive intervals use
// DefaultTickInterval.
func NewStopwatch(interval time.Duration) *Stopwatch {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Stopwatch{interval: interval}
}

// Start begins ticking, replacing any previous run. onTick runs on the
// stopwatch goroutine and must not call Start or Stop.
func (s *Stopwatch) Start(ctx context.Context, onTick func(elapsed time.Duration)) {
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	started := time.Now()
	go func() {
		defer close(done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				onTick(now.Sub(started))
			}
		}
	}()
}

// Stop halts ticking and waits for the goroutine to exit. Safe to call when
// not running and safe to call more than once.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the stopwatch is ticking.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
