// Package search implements the weighted-feature scoring and projection engine.
//
// A query is a vector of per-feature weights in [-1, 1]. Each record carries a
// rating per feature; its score is the dot product of the two. Projection sweeps
// one feature's weight across a range and counts how many records would match at
// each step, producing the "hints" that the grapher renders as a density strip.
//
// Everything in this package is a pure function over immutable inputs.
package search

import "sort"

// Geo is a WGS84 coordinate.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record is one rated item. Records are treated as immutable once loaded.
type Record struct {
	ID     int                `json:"id"`
	Name   string             `json:"name"`
	URL    string             `json:"url"`
	Rating map[string]float64 `json:"rating"`
	Geo    *Geo               `json:"geo,omitempty"`
}

// QueryVector maps feature name to weight. Values are expected in [-1, 1].
type QueryVector map[string]float64

// Clone returns an independent copy of q.
func (q QueryVector) Clone() QueryVector {
	c := make(QueryVector, len(q))
	for k, v := range q {
		c[k] = v
	}
	return c
}

// Names returns the feature names of q in sorted order.
func (q QueryVector) Names() []string {
	names := make([]string, 0, len(q))
	for k := range q {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Match is a record that passed the minimum score, with its score.
type Match struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Hint is the number of records that would match with one feature's weight
// set to Sample.
type Hint struct {
	Sample float64 `json:"sample"`
	Count  int     `json:"count"`
}

// HintSeries is one Hint per sweep step, ordered from the range maximum down
// to the range minimum.
type HintSeries []Hint

// Counts returns the count of every hint, in series order.
func (h HintSeries) Counts() []float64 {
	counts := make([]float64, len(h))
	for i, hint := range h {
		counts[i] = float64(hint.Count)
	}
	return counts
}

// Hint2D is a match count for a pair of swept feature weights.
type Hint2D struct {
	SampleX float64 `json:"sampleX"`
	SampleY float64 `json:"sampleY"`
	Count   int     `json:"count"`
}
