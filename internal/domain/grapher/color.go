package grapher

import (
	"fmt"
	"image/color"
	"math"

	"github.com/corey/hscd/internal/domain/search"
)

// Palette.
var (
	EmptyColor    = color.RGBA{R: 0xee, G: 0xee, B: 0xec, A: 0xff}
	StrokeColor   = color.RGBA{R: 0xd3, G: 0xd7, B: 0xcf, A: 0xff}
	PositiveColor = color.RGBA{R: 0xcc, G: 0x00, B: 0x00, A: 0xff}
	NegativeColor = color.RGBA{R: 0x34, G: 0x65, B: 0xa4, A: 0xff}
	BracketColor  = color.RGBA{R: 0x55, G: 0x57, B: 0x53, A: 0xff}
)

const (
	// desaturateOffset shifts the saturation curve so values near the range
	// ends keep their full color.
	desaturateOffset = -0.3
	handleDarken     = 0.25
)

// GradientStop is one color along the density strip. Offset 0 is the top of
// the strip (the range maximum) and grows towards the bottom.
type GradientStop struct {
	Offset float64
	Color  color.RGBA
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// groupHints sums hint counts into steps equal buckets over r, walking from
// r.Max down. A hint lands in the bucket whose (min, max] holds its sample.
func groupHints(hints search.HintSeries, r search.Range, steps int) []int {
	if steps <= 0 {
		return nil
	}

	stepSize := r.Length() / float64(steps)
	groups := make([]int, steps)
	for i := range groups {
		stepMax := r.Max - stepSize*float64(i)
		stepMin := stepMax - stepSize
		for _, h := range hints {
			if h.Sample > stepMin && h.Sample <= stepMax {
				groups[i] += h.Count
			}
		}
	}
	return groups
}

// densityGray maps a bucket count onto a gray level: white for counts at or
// below the scale minimum, black at the scale maximum and beyond.
func densityGray(count int, scale search.Range) color.RGBA {
	var pct float64
	if scale.Length() > 0 {
		pct = math.Max(0, float64(count)-scale.Min) / scale.Length()
	}
	b := uint8(0xff - math.Min(0xff, math.Round(0xff*pct)))
	return color.RGBA{R: b, G: b, B: b, A: 0xff}
}

// DensityStops renders a hint series as gradient stops, one per bucket.
func DensityStops(hints search.HintSeries, r search.Range, scale search.Range, steps int) []GradientStop {
	groups := groupHints(hints, r, steps)
	stops := make([]GradientStop, len(groups))
	for i, count := range groups {
		stops[i] = GradientStop{
			Offset: float64(i) / float64(steps),
			Color:  densityGray(count, scale),
		}
	}
	return stops
}

// FillColor picks the indicator color for value: red for non-negative values
// and blue for negative ones, fading to gray as the value approaches the
// middle of r.
func FillColor(value float64, r search.Range) color.RGBA {
	base, end := PositiveColor, r.Max
	if value < 0 {
		base, end = NegativeColor, r.Min
	}

	mid := (r.Min + r.Max) / 2
	var ratio float64
	if end != mid {
		ratio = (value - mid) / (end - mid)
	}
	amount := math.Max(0, 1-ratio+desaturateOffset)
	return desaturate(base, amount)
}

// HandleColor is the fill color darkened by a quarter.
func HandleColor(fill color.RGBA) color.RGBA {
	scale := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) * (1 - handleDarken)))
	}
	return color.RGBA{R: scale(fill.R), G: scale(fill.G), B: scale(fill.B), A: fill.A}
}

// desaturate lowers the HSL saturation of c by amount (0..1).
func desaturate(c color.RGBA, amount float64) color.RGBA {
	h, s, l := rgbToHSL(c)
	s = math.Max(0, math.Min(1, s-amount))
	return hslToRGB(h, s, l, c.A)
}

func rgbToHSL(c color.RGBA) (h, s, l float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2
	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, l
}

func hslToRGB(h, s, l float64, a uint8) color.RGBA {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return color.RGBA{R: v, G: v, B: v, A: a}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	channel := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}

	return color.RGBA{R: channel(h + 1.0/3), G: channel(h), B: channel(h - 1.0/3), A: a}
}
