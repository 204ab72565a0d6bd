package search

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// bracketSigmas is how many sample standard deviations the bracket spans on
// each side of the mean.
const bracketSigmas = 3.0

// HiddenBracket is returned when there is nothing to bracket. Min > Max marks
// it as not displayable.
var HiddenBracket = Range{Min: 1.0, Max: -1.0}

// Bracket summarizes where the matched records sit along one feature: the
// mean plus or minus three sample standard deviations, clipped to the
// observed minimum and maximum. Records without a rating for feature are
// skipped. With no ratings the result is HiddenBracket.
func Bracket(matched []Record, feature string) Range {
	values := make([]float64, 0, len(matched))
	for _, r := range matched {
		if v, ok := r.Rating[feature]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return HiddenBracket
	}

	mean := stat.Mean(values, nil)
	var dev float64
	if len(values) > 1 {
		dev = stat.StdDev(values, nil) * bracketSigmas
	}

	return Range{
		Min: math.Max(mean-dev, floats.Min(values)),
		Max: math.Min(mean+dev, floats.Max(values)),
	}
}
