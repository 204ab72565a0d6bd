package search

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Geo) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// WithinDistance keeps the records located within maxKm of origin. Records
// with no coordinates are dropped. A non-positive maxKm disables the filter.
func WithinDistance(records []Record, origin Geo, maxKm float64) []Record {
	if maxKm <= 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Geo == nil {
			continue
		}
		if DistanceKm(origin, *r.Geo) <= maxKm {
			out = append(out, r)
		}
	}
	return out
}
