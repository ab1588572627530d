package repository

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: guesses ASC, elapsedSec ASC, createdAt ASC, then insertion
// sequence ASC. In-order traversal yields the leaderboard best to worst.
// Node priorities are random, which keeps the tree balanced in expectation
// whatever the insertion order.

type key struct {
	guesses int
	elapsed int
	created int64 // unix nanos
	seq     uint64
}

func keyOf(e *model.Entry, seq uint64) key {
	return key{guesses: e.Guesses, elapsed: e.ElapsedSec, created: e.CreatedAt.UnixNano(), seq: seq}
}

// less returns true if a ranks before b.
func less(a, b key) bool {
	if a.guesses != b.guesses {
		return a.guesses < b.guesses
	}
	if a.elapsed != b.elapsed {
		return a.elapsed < b.elapsed
	}
	if a.created != b.created {
		return a.created < b.created
	}
	return a.seq < b.seq
}

// treap node
type node struct {
	key   key
	entry *model.Entry
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k key, e *model.Entry, prio uint64) *node {
	if n == nil {
		return &node{key: k, entry: e, prio: prio, size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k, e, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k, e, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTop appends up to limit entries in rank order.
func collectTop(n *node, limit int, out *[]model.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, *n.entry)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

// TreapStore keeps entries in memory. Used for development and tests.
type TreapStore struct {
	mu      sync.RWMutex
	root    *node
	seq     uint64
	byEmail map[string][]*model.Entry // createdAt desc
	closed  bool
	newID   func() string

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byEmail:               make(map[string][]*model.Entry),
		newID:                 uuid.NewString,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Insert implements Store.Insert in O(log n) expected time.
func (s *TreapStore) Insert(_ context.Context, e model.Entry) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("insert", float64(time.Since(start).Milliseconds())) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		metrics.RecordStoreError("insert")
		return "", ErrClosed
	}

	e.ID = s.newID()
	stored := &e
	s.seq++
	s.root = insert(s.root, keyOf(stored, s.seq), stored, rand.Uint64())

	list := s.byEmail[e.Email]
	// newest first; equal timestamps keep the later insert first
	i := sort.Search(len(list), func(i int) bool { return !list[i].CreatedAt.After(e.CreatedAt) })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = stored
	s.byEmail[e.Email] = list

	return e.ID, nil
}

// Top implements Store.Top.
func (s *TreapStore) Top(_ context.Context, limit int) ([]model.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("top", float64(time.Since(start).Milliseconds())) }()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		metrics.RecordStoreError("top")
		return nil, ErrClosed
	}

	capacity := limit
	if n := nsize(s.root); n < capacity {
		capacity = n
	}
	out := make([]model.Entry, 0, capacity)
	collectTop(s.root, limit, &out)
	return out, nil
}

// ByEmail implements Store.ByEmail.
func (s *TreapStore) ByEmail(_ context.Context, email string, limit int) ([]model.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("by_email", float64(time.Since(start).Milliseconds())) }()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	list := s.byEmail[email]
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]model.Entry, len(list))
	for i, e := range list {
		out[i] = *e
	}
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(nsize(s.root)), nil
}

// EnsureIndexes is a no-op; both orderings are maintained on insert.
func (s *TreapStore) EnsureIndexes(context.Context) error { return nil }

// Close stops the metrics goroutine. Further calls fail with ErrClosed.
func (s *TreapStore) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// startMetricsUpdater starts a background goroutine that publishes the entry count.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				n, _ := s.Count(ctx)
				metrics.UpdateLeaderboardEntries(n)
			}
		}
	}()
}
