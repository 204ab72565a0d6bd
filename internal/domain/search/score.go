package search

import (
	"sort"
	"strings"
)

// Sort keys accepted by SortMatches.
const (
	SortByScore = "score"
	SortByName  = "name"
)

// Score returns the dot product of the query weights and the record's
// ratings. Features the record has no rating for contribute 0. Terms are
// summed in feature-name order, so identical inputs give identical bits.
func Score(q QueryVector, r Record) float64 {
	return scoreNames(q, q.Names(), r)
}

// scoreNames sums q over names, which must be q's sorted feature names.
func scoreNames(q QueryVector, names []string, r Record) float64 {
	var score float64
	for _, feature := range names {
		score += q[feature] * r.Rating[feature]
	}
	return score
}

// walkMatches calls fn for every record scoring at least minScore, in
// record order.
func walkMatches(records []Record, q QueryVector, minScore float64, fn func(Record, float64)) {
	names := q.Names()
	for _, r := range records {
		if score := scoreNames(q, names, r); score >= minScore {
			fn(r, score)
		}
	}
}

// Search returns every record scoring at least minScore, sorted by score
// descending. Ties keep their encounter order.
func Search(records []Record, q QueryVector, minScore float64) []Match {
	var matches []Match
	walkMatches(records, q, minScore, func(r Record, score float64) {
		matches = append(matches, Match{ID: r.ID, Name: r.Name, URL: r.URL, Score: score})
	})

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Count returns how many records score at least minScore.
func Count(records []Record, q QueryVector, minScore float64) int {
	n := 0
	walkMatches(records, q, minScore, func(Record, float64) { n++ })
	return n
}

// Matching returns the records (not just their scores) that pass minScore,
// in record order.
func Matching(records []Record, q QueryVector, minScore float64) []Record {
	var out []Record
	walkMatches(records, q, minScore, func(r Record, _ float64) {
		out = append(out, r)
	})
	return out
}

// SortMatches reorders matches in place by key. Unknown keys sort by score.
// The default direction for score is descending; ascending flips it. Name
// sorts are case-insensitive. The sort is stable.
func SortMatches(matches []Match, key string, ascending bool) {
	var less func(a, b Match) bool
	switch key {
	case SortByName:
		less = func(a, b Match) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	default:
		less = func(a, b Match) bool { return a.Score < b.Score }
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if ascending {
			return less(matches[i], matches[j])
		}
		return less(matches[j], matches[i])
	})
}
