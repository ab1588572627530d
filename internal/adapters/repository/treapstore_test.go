package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/witarcade/internal/domain/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(email string, guesses, elapsed int, offset time.Duration) model.Entry {
	return model.Entry{Email: email, Guesses: guesses, ElapsedSec: elapsed, Consent: true, CreatedAt: base.Add(offset)}
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}
	top, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected empty leaderboard, got %d entries", len(top))
	}

	id, err := store.Insert(ctx, entry("a@x.io", 4, 30, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected a generated id")
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}

	top, _ = store.Top(ctx, 10)
	if len(top) != 1 || top[0].ID != id || top[0].Email != "a@x.io" {
		t.Errorf("unexpected top: %+v", top)
	}
}

func TestTreapStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	inserts := []model.Entry{
		entry("late@x.io", 3, 40, 2*time.Second),
		entry("slow@x.io", 3, 50, 0),
		entry("early@x.io", 3, 40, time.Second),
		entry("best@x.io", 2, 90, 3*time.Second),
		entry("worst@x.io", 6, 10, 4*time.Second),
	}
	for _, e := range inserts {
		if _, err := store.Insert(ctx, e); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	top, err := store.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []string{"best@x.io", "early@x.io", "late@x.io", "slow@x.io", "worst@x.io"}
	for i, w := range want {
		if top[i].Email != w {
			t.Errorf("position %d: want %s, got %s", i, w, top[i].Email)
		}
	}

	top, _ = store.Top(ctx, 2)
	if len(top) != 2 || top[1].Email != "early@x.io" {
		t.Errorf("limit not honoured: %+v", top)
	}
}

func TestTreapStore_InvalidLimit(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	for _, limit := range []int{0, -1} {
		if _, err := store.Top(ctx, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
		if _, err := store.ByEmail(ctx, "a@x.io", limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestTreapStore_ByEmail(t *testing.T) {
	ctx := context.Background()
	n := 0
	store := NewTreapStore(ctx, WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }))
	defer func() { _ = store.Close(ctx) }()

	_, _ = store.Insert(ctx, entry("me@x.io", 5, 10, 0))
	_, _ = store.Insert(ctx, entry("you@x.io", 1, 1, time.Second))
	_, _ = store.Insert(ctx, entry("me@x.io", 2, 10, 3*time.Second))
	_, _ = store.Insert(ctx, entry("me@x.io", 4, 10, time.Second))

	got, err := store.ByEmail(ctx, "me@x.io", 10)
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	wantIDs := []string{"id-3", "id-4", "id-1"}
	if len(got) != len(wantIDs) {
		t.Fatalf("want %d entries, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}

	got, _ = store.ByEmail(ctx, "me@x.io", 1)
	if len(got) != 1 || got[0].ID != "id-3" {
		t.Errorf("limit not honoured: %+v", got)
	}
	got, _ = store.ByEmail(ctx, "nobody@x.io", 5)
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestTreapStore_MatchesSort(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	rng := rand.New(rand.NewSource(42))
	all := make([]model.Entry, 0, 500)
	for i := 0; i < 500; i++ {
		e := entry(fmt.Sprintf("p%d@x.io", i), 1+rng.Intn(6), rng.Intn(120), time.Duration(rng.Intn(50))*time.Second)
		id, err := store.Insert(ctx, e)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		e.ID = id
		all = append(all, e)
	}
	sort.SliceStable(all, func(i, j int) bool { return model.Less(all[i], all[j]) })

	top, _ := store.Top(ctx, 50)
	for i := range top {
		if top[i].ID != all[i].ID {
			t.Fatalf("position %d: want %s, got %s", i, all[i].ID, top[i].ID)
		}
	}
}

func TestTreapStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = store.Insert(ctx, entry(fmt.Sprintf("g%d@x.io", g), 1+i%6, i, time.Duration(i)*time.Millisecond))
				_, _ = store.Top(ctx, 10)
			}
		}(g)
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 800 {
		t.Errorf("expected 800 entries, got %d", n)
	}
}

func TestTreapStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	if err := store.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := store.Insert(ctx, entry("a@x.io", 1, 1, 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func BenchmarkTreapStore_Insert(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Insert(ctx, entry("bench@x.io", 1+i%6, i%300, time.Duration(i)))
	}
}

func BenchmarkTreapStore_Top50(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer func() { _ = store.Close(ctx) }()
	for i := 0; i < 100_000; i++ {
		_, _ = store.Insert(ctx, entry("bench@x.io", 1+i%6, i%300, time.Duration(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Top(ctx, 50)
	}
}
