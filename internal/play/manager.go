package play

import (
	"context"
	"sync"
	"time"

	"github.com/okian/witarcade/internal/domain/round"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/okian/witarcade/pkg/metrics"
)

// DefaultIdleTimeout closes sessions that received no events for this long.
const DefaultIdleTimeout = 30 * time.Minute

// Manager owns the live sessions of a server process.
type Manager struct {
	cat         round.Catalog
	opts        []SessionOption
	idleTimeout time.Duration
	log         logger.Logger

	mu       sync.Mutex
	sessions map[string]*managed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type managed struct {
	session *Session
	cancel  context.CancelFunc
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout sets the idle cutoff. Zero disables reaping.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.idleTimeout = d
		}
	}
}

// WithSessionOptions applies opts to every session the manager opens.
func WithSessionOptions(opts ...SessionOption) ManagerOption {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

// WithManagerLogger sets the logger.
func WithManagerLogger(l logger.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager creates a manager; sessions live until closed, reaped or the
// parent ctx ends.
func NewManager(ctx context.Context, cat round.Catalog, opts ...ManagerOption) *Manager {
	m := &Manager{
		cat:         cat,
		idleTimeout: DefaultIdleTimeout,
		sessions:    make(map[string]*managed),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get().Named("play")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	if m.idleTimeout > 0 {
		m.wg.Add(1)
		go m.reaperLoop()
	}
	return m
}

// Open starts a new session.
func (m *Manager) Open() *Session {
	s := NewSession(m.cat, append([]SessionOption{WithSessionLogger(m.log)}, m.opts...)...)
	ctx, cancel := context.WithCancel(m.ctx)

	m.mu.Lock()
	m.sessions[s.ID()] = &managed{session: s, cancel: cancel}
	m.mu.Unlock()

	metrics.SessionOpened()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(ctx)
		m.forget(s.ID())
	}()
	m.log.Debug(ctx, "session opened", logger.String("session", s.ID()))
	return s
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return ms.session, true
}

// Close stops a session. Unknown ids are ignored.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		ms.cancel()
	}
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		ms.cancel()
		metrics.SessionClosed()
		m.log.Debug(m.ctx, "session closed", logger.String("session", id))
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// GetStats reports session counts for /stats.
func (m *Manager) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"sessions":    m.Len(),
		"idleTimeout": m.idleTimeout.String(),
	}
}

// Shutdown closes every session and waits for them to finish.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) reaperLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.reap(time.Now().Add(-m.idleTimeout))
		}
	}
}

func (m *Manager) reap(cutoff time.Time) int {
	m.mu.Lock()
	var idle []*managed
	for _, ms := range m.sessions {
		if ms.session.LastActive().Before(cutoff) {
			idle = append(idle, ms)
		}
	}
	m.mu.Unlock()

	for _, ms := range idle {
		ms.cancel()
	}
	if len(idle) > 0 {
		m.log.Info(m.ctx, "reaped idle sessions", logger.Int("count", len(idle)))
	}
	return len(idle)
}
