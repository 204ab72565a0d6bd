package grapher

import "math"

// Point is a position in surface-local coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle. Width and Height are never negative for
// rectangles produced by this package.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right returns the x coordinate one past the rectangle.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate one past the rectangle.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r. The left and top edges are
// inside, the right and bottom edges are not, so adjacent rectangles never
// both claim a point.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right() && p.Y >= r.Top && p.Y < r.Bottom()
}

// Intersect returns the overlap of r and o. When they do not touch, r is
// returned unchanged and ok is false.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	left := math.Max(r.Left, o.Left)
	top := math.Max(r.Top, o.Top)
	right := math.Min(r.Right(), o.Right())
	bottom := math.Min(r.Bottom(), o.Bottom())
	if left > right || top > bottom {
		return r, false
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}, true
}
