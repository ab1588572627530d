package suggest

import (
	"strings"
	"time"

	"github.com/okian/witarcade/pkg/metrics"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index answers Rank queries over a fixed name list without scanning every
// name for the prefix tiers. Results are identical to Rank(query, names).
// Safe for concurrent use after construction.
type Index struct {
	names []string
	lower []string
	first *patricia.Trie
	last  *patricia.Trie
}

// NewIndex builds an index over names. The slice is copied.
func NewIndex(names []string) *Index {
	idx := &Index{
		names: append([]string(nil), names...),
		lower: make([]string, len(names)),
		first: patricia.NewTrie(),
		last:  patricia.NewTrie(),
	}
	for i, name := range idx.names {
		idx.lower[i] = strings.ToLower(name)
		first, last := edges(idx.lower[i])
		if first == "" {
			continue
		}
		add(idx.first, first, i)
		add(idx.last, last, i)
	}
	return idx
}

func add(t *patricia.Trie, key string, i int) {
	p := patricia.Prefix(key)
	if item := t.Get(p); item != nil {
		t.Set(p, append(item.([]int), i))
		return
	}
	t.Insert(p, []int{i})
}

// Len returns the number of indexed names.
func (idx *Index) Len() int { return len(idx.names) }

// Query returns the ranked suggestions for query.
func (idx *Index) Query(query string) []string {
	start := time.Now()
	defer func() { metrics.RecordSuggestLatency(time.Since(start)) }()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []string{}
	}

	tiers := make(map[int]int)
	visit := func(t *patricia.Trie, level int) {
		_ = t.VisitSubtree(patricia.Prefix(q), func(_ patricia.Prefix, item patricia.Item) error {
			for _, i := range item.([]int) {
				if _, seen := tiers[i]; !seen {
					tiers[i] = level
				}
			}
			return nil
		})
	}
	visit(idx.first, 0)
	visit(idx.last, 1)
	for i, l := range idx.lower {
		if _, seen := tiers[i]; !seen && strings.Contains(l, q) {
			tiers[i] = 2
		}
	}

	matches := make([]ranked, 0, len(tiers))
	for i, t := range tiers {
		matches = append(matches, ranked{name: idx.names[i], tier: t})
	}
	sortRanked(matches)
	return collect(matches)
}
