package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Search performs fuzzy client-name matching across all stored records.
// Scoring is heuristic but deterministic:
//
//	exact match                        1.0
//	query substring of name            len(query)/len(name) * 0.9
//	query matches leading initials     0.8 (queries of 5 characters or fewer)
//
// Results are ordered by descending score; ties keep insertion order. An
// empty query matches nothing rather than failing.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]*MatchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	records, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}

	var results []*MatchResult
	for _, r := range records {
		score := matchScore(q, r.ClientName)
		if score > 0 {
			results = append(results, &MatchResult{Record: r, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// matchScore scores a lowercased query against a client name. The stored
// name is lowercased but never trimmed, so the substring ratio divides by
// the name's stored byte length.
func matchScore(query, clientName string) float64 {
	name := strings.ToLower(clientName)
	if strings.TrimSpace(name) == "" {
		return 0
	}
	if query == name {
		return 1.0
	}
	if strings.Contains(name, query) {
		return float64(len(query)) / float64(len(name)) * 0.9
	}
	if len(query) <= 5 && query == initials(name, len(query)) {
		return 0.8
	}
	return 0
}

// initials returns the first letter of each of the first n words of name,
// or "" when name has fewer than n words. A two-letter query is therefore
// checked against the first two words only.
func initials(name string, n int) string {
	words := strings.Fields(name)
	if len(words) < n {
		return ""
	}
	var b strings.Builder
	for _, word := range words[:n] {
		b.WriteByte(word[0])
	}
	return b.String()
}
