// Package suggest ranks catalog names for autocomplete.
//
// A name matches a query in one of three tiers: its first word starts with
// the query (0), its last word does (1), or it merely contains it (2).
// Results are ordered by tier, then by name, and capped at MaxResults.
package suggest

import (
	"sort"
	"strings"
)

// MaxResults caps the number of suggestions returned.
const MaxResults = 100

const noMatch = -1

type ranked struct {
	name string
	tier int
}

// Rank returns the names matching query in display order. Pure and
// deterministic; the input slice is not modified.
func Rank(query string, names []string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []string{}
	}

	matches := make([]ranked, 0, len(names))
	for _, name := range names {
		if t := tier(q, name); t != noMatch {
			matches = append(matches, ranked{name: name, tier: t})
		}
	}
	sortRanked(matches)
	return collect(matches)
}

func tier(q, name string) int {
	lower := strings.ToLower(name)
	first, last := edges(lower)
	switch {
	case first != "" && strings.HasPrefix(first, q):
		return 0
	case last != "" && strings.HasPrefix(last, q):
		return 1
	case strings.Contains(lower, q):
		return 2
	default:
		return noMatch
	}
}

// edges returns the first and last whitespace-delimited words of s.
func edges(s string) (first, last string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], fields[len(fields)-1]
}

func sortRanked(matches []ranked) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].tier != matches[j].tier {
			return matches[i].tier < matches[j].tier
		}
		return matches[i].name < matches[j].name
	})
}

func collect(matches []ranked) []string {
	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
