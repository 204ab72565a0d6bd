// Package scale derives the count range that hint densities are normalized
// against, either per column or across every column at once.
package scale

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/corey/hscd/internal/domain/search"
)

// Local returns the count range of a single hint series. The lower bound is
// the smallest count when relative is set and 0 otherwise.
func Local(hints search.HintSeries, relative bool) (search.Range, error) {
	if len(hints) == 0 {
		return search.Range{}, fmt.Errorf("local scale: %w", search.ErrEmptyInput)
	}

	counts := hints.Counts()
	r := search.Range{Max: floats.Max(counts)}
	if relative {
		r.Min = floats.Min(counts)
	}
	return r, nil
}

// Global folds the local scale of every column into one range. Columns are
// visited in name order, though the result does not depend on it.
func Global(byColumn map[string]search.HintSeries, relative bool) (search.Range, error) {
	if len(byColumn) == 0 {
		return search.Range{}, fmt.Errorf("global scale: no columns: %w", search.ErrInvalidArgument)
	}

	names := make([]string, 0, len(byColumn))
	for name := range byColumn {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		global search.Range
		seeded bool
	)
	for _, name := range names {
		local, err := Local(byColumn[name], relative)
		if err != nil {
			return search.Range{}, fmt.Errorf("global scale: column %q: %w", name, err)
		}
		if !seeded {
			global, seeded = local, true
			continue
		}
		global = global.Include(local)
	}
	return global, nil
}

// ForColumns returns the scale each column should render with: its own local
// scale when useLocal is set, otherwise the shared global scale.
func ForColumns(byColumn map[string]search.HintSeries, useLocal, relative bool) (map[string]search.Range, error) {
	out := make(map[string]search.Range, len(byColumn))
	if useLocal {
		for name, hints := range byColumn {
			r, err := Local(hints, relative)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			out[name] = r
		}
		return out, nil
	}

	global, err := Global(byColumn, relative)
	if err != nil {
		return nil, err
	}
	for name := range byColumn {
		out[name] = global
	}
	return out, nil
}
