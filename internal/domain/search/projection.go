package search

import "fmt"

// Sweep divides r into steps equal buckets, walking from r.Max down to r.Min,
// and returns each bucket's midpoint. The result has exactly steps samples.
func Sweep(r Range, steps int) ([]float64, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("sweep steps %d: %w", steps, ErrInvalidArgument)
	}

	stepSize := r.Length() / float64(steps)
	samples := make([]float64, steps)
	for i := 0; i < steps; i++ {
		stepMax := r.Max - stepSize*float64(i)
		stepMin := stepMax - stepSize
		samples[i] = (stepMin + stepMax) / 2
	}
	return samples, nil
}

// BuildHints sweeps feature across r and counts the matches at each sample.
// The caller's query is never modified.
func BuildHints(records []Record, q QueryVector, minScore float64, feature string, r Range, steps int) (HintSeries, error) {
	samples, err := Sweep(r, steps)
	if err != nil {
		return nil, fmt.Errorf("build hints for %q: %w", feature, err)
	}

	probe := q.Clone()
	hints := make(HintSeries, len(samples))
	for i, sample := range samples {
		probe[feature] = sample
		hints[i] = Hint{Sample: sample, Count: Count(records, probe, minScore)}
	}
	return hints, nil
}

// BuildHints2D sweeps featureX (outer) and featureY (inner) across r and
// counts the matches for every pair of samples. The result has steps*steps
// entries.
func BuildHints2D(records []Record, q QueryVector, minScore float64, featureX, featureY string, r Range, steps int) ([]Hint2D, error) {
	samples, err := Sweep(r, steps)
	if err != nil {
		return nil, fmt.Errorf("build hints for %q/%q: %w", featureX, featureY, err)
	}

	probe := q.Clone()
	hints := make([]Hint2D, 0, len(samples)*len(samples))
	for _, x := range samples {
		probe[featureX] = x
		for _, y := range samples {
			probe[featureY] = y
			hints = append(hints, Hint2D{SampleX: x, SampleY: y, Count: Count(records, probe, minScore)})
		}
	}
	return hints, nil
}
