// Package dedupe tracks idempotency keys for score submissions so that a
// retried request returns the original result instead of inserting twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Outcome is the result of claiming a key.
type Outcome int

const (
	// Claimed means the caller owns the key and must Complete or Release it.
	Claimed Outcome = iota
	// InFlight means another caller holds the key and has not finished.
	InFlight
	// Replayed means the key already completed; Claim.ID holds the result.
	Replayed
	// Mismatch means the key completed for a different payload.
	Mismatch
)

// Claim reports what happened to a key.
type Claim struct {
	Outcome Outcome
	ID      string
}

// Deduper records idempotency keys to ensure at-most-once submission.
type Deduper interface {
	// Claim atomically reserves key for the payload identified by
	// fingerprint, or reports why it cannot.
	Claim(ctx context.Context, key, fingerprint string) Claim

	// Complete stores the result for a claimed key.
	Complete(ctx context.Context, key, id string)

	// Release forgets a claimed key so it can be retried, e.g. after a
	// failed insert.
	Release(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key         string
	fingerprint string
	id          string
	done        bool
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest
// completed key once maxSize is reached. Pending keys are never evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	byKey   map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.byKey = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, fingerprint string) Claim {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		e := el.Value.(*entry)
		switch {
		case !e.done:
			return Claim{Outcome: InFlight}
		case e.fingerprint != fingerprint:
			return Claim{Outcome: Mismatch}
		default:
			return Claim{Outcome: Replayed, ID: e.id}
		}
	}

	if d.maxSize > 0 && len(d.byKey) >= d.maxSize {
		d.evictOldest()
	}
	d.byKey[key] = d.order.PushBack(&entry{key: key, fingerprint: fingerprint})
	d.size.Store(int64(len(d.byKey)))
	return Claim{Outcome: Claimed}
}

func (d *inMemoryDeduper) Complete(_ context.Context, key, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok {
		e := el.Value.(*entry)
		e.id = id
		e.done = true
	}
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byKey[key]; ok && !el.Value.(*entry).done {
		d.order.Remove(el)
		delete(d.byKey, key)
		d.size.Store(int64(len(d.byKey)))
	}
}

// evictOldest drops the oldest completed key. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for el := d.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if !e.done {
			continue
		}
		d.order.Remove(el)
		delete(d.byKey, e.key)
		return
	}
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
