package search

import "math"

// Range is a closed numeric interval. Min <= Max always holds for ranges
// built with NewRange.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NewRange returns the range spanning a and b in either order.
func NewRange(a, b float64) Range {
	return Range{Min: math.Min(a, b), Max: math.Max(a, b)}
}

// DefaultRange is the sweep domain used when a request does not name one.
func DefaultRange() Range {
	return Range{Min: -1.0, Max: 1.0}
}

// Length returns Max - Min.
func (r Range) Length() float64 {
	return r.Max - r.Min
}

// Contains reports whether v lies inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp pins v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Include returns the smallest range covering both r and o.
// The union is commutative and associative, so folding a set of ranges
// gives the same result in any order.
func (r Range) Include(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

// Offset maps v into [0, 1] relative to the range (unclamped).
// A zero-length range maps everything to 0.
func (r Range) Offset(v float64) float64 {
	if r.Length() == 0 {
		return 0
	}
	return (v - r.Min) / r.Length()
}

// Project is the inverse of Offset: it maps t in [0, 1] back into the range.
func (r Range) Project(t float64) float64 {
	return r.Min + r.Length()*t
}

// Valid reports whether the range is ordered and finite.
func (r Range) Valid() bool {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return false
	}
	return r.Min <= r.Max
}
