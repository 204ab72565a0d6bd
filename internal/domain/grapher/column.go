package grapher

import (
	"image/color"
	"time"

	"github.com/corey/hscd/internal/domain/search"
)

// State is the interaction state of a Column.
type State int

const (
	StateNormal State = iota
	StateHover
	StateDrag
)

func (s State) String() string {
	switch s {
	case StateHover:
		return "hover"
	case StateDrag:
		return "drag"
	default:
		return "normal"
	}
}

// Cursor is the pointer affordance a column asks for.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorResize
)

// ColumnData is what the host supplies for one feature after each query.
type ColumnData struct {
	Value   float64
	Hints   search.HintSeries
	Steps   int
	Bracket search.Range
}

// Layout is the set of regions carved out of a column's bounds.
type Layout struct {
	Bounds Rect
	Label  Rect
	Body   Rect
	Hint   Rect
	Fill   Rect
	Handle Rect
}

// Frame is everything a renderer needs to paint a column at one instant.
type Frame struct {
	Name        string
	State       State
	Cursor      Cursor
	Layout      Layout
	Indicator   Rect
	FillColor   color.RGBA
	HandleColor color.RGBA
	Density     []GradientStop
	Bracket     Rect
	ShowBracket bool
}

// ValueChangedFunc receives committed column values.
type ValueChangedFunc func(name string, value float64)

// Column is one feature's interactive control.
type Column struct {
	name    string
	rng     search.Range
	metrics Metrics
	bounds  Rect
	data    ColumnData
	scale   search.Range

	state     State
	cursor    Cursor
	dragDelta float64
	layout    Layout

	anim           *Animator
	now            func() time.Time
	onValueChanged ValueChangedFunc
}

func newColumn(name string, rng search.Range, metrics Metrics, bounds Rect, data ColumnData, scale search.Range,
	now func() time.Time, onValueChanged ValueChangedFunc) *Column {
	data.Value = rng.Clamp(data.Value)
	c := &Column{
		name:           name,
		rng:            rng,
		metrics:        metrics,
		bounds:         bounds,
		data:           data,
		scale:          scale,
		anim:           NewAnimator(data.Value, DefaultAnimationDuration),
		now:            now,
		onValueChanged: onValueChanged,
	}
	c.relayout()
	return c
}

// Name returns the feature this column controls.
func (c *Column) Name() string { return c.name }

// Value returns the committed (clamped) value.
func (c *Column) Value() float64 { return c.data.Value }

// DisplayedValue returns the value the indicator currently shows.
func (c *Column) DisplayedValue() float64 { return c.anim.Value() }

// State returns the interaction state.
func (c *Column) State() State { return c.state }

// Cursor returns the requested pointer affordance.
func (c *Column) Cursor() Cursor { return c.cursor }

// Scale returns the count range used for density colors.
func (c *Column) Scale() search.Range { return c.scale }

// Hints returns the current hint series.
func (c *Column) Hints() search.HintSeries { return c.data.Hints }

// Data returns a copy of the column's current data.
func (c *Column) Data() ColumnData { return c.data }

// Layout returns the regions for the committed value.
func (c *Column) Layout() Layout { return c.layout }

// Animating reports whether the indicator is still moving.
func (c *Column) Animating() bool { return c.anim.Running() }

// SetValue clamps raw into the column range, relayouts, and animates the
// indicator from wherever it is now. The value-changed callback fires only
// when commit is set.
func (c *Column) SetValue(raw float64, commit bool) {
	c.data.Value = c.rng.Clamp(raw)
	c.relayout()
	c.anim.Start(c.data.Value, c.now())

	if commit && c.onValueChanged != nil {
		c.onValueChanged(c.name, c.data.Value)
	}
}

// Update replaces the column's data and scale in place. A changed value is
// animated but not reported back to the host, since the host supplied it.
func (c *Column) Update(data ColumnData, scale search.Range) {
	value := c.rng.Clamp(data.Value)
	changed := value != c.data.Value

	c.data = data
	c.data.Value = value
	c.scale = scale
	c.relayout()
	if changed {
		c.anim.Start(value, c.now())
	}
}

// SetScale replaces the density scale only.
func (c *Column) SetScale(scale search.Range) {
	c.scale = scale
}

// SetBounds moves the column and relayouts.
func (c *Column) SetBounds(bounds Rect) {
	c.bounds = bounds
	c.relayout()
}

// Step advances the indicator animation and reports whether it is still
// running.
func (c *Column) Step(now time.Time) bool {
	c.anim.Step(now)
	return c.anim.Running()
}

// ValueAt maps a vertical position in the column body onto the column range.
// The result is not clamped.
func (c *Column) ValueAt(p Point) float64 {
	body := c.layout.Body
	if body.Height == 0 {
		return c.rng.Min
	}
	pct := 1 - (p.Y-body.Top)/body.Height
	return c.rng.Project(pct)
}

func (c *Column) grabbing(p Point) bool  { return c.layout.Handle.Contains(p) }
func (c *Column) hovering(p Point) bool  { return c.grabbing(p) }
func (c *Column) contained(p Point) bool { return c.layout.Body.Contains(p) }

// PointerDown starts a drag when p is on the handle.
func (c *Column) PointerDown(p Point) {
	if c.grabbing(p) {
		c.transition(StateDrag, p)
	}
}

// PointerUp ends any drag, committing its value.
func (c *Column) PointerUp(p Point) {
	if c.hovering(p) {
		c.transition(StateHover, p)
	} else {
		c.transition(StateNormal, p)
	}
}

// PointerMove updates hover state and previews a drag without committing.
func (c *Column) PointerMove(p Point) {
	switch c.state {
	case StateNormal:
		if c.hovering(p) {
			c.transition(StateHover, p)
		}
	case StateHover:
		if !c.hovering(p) {
			c.transition(StateNormal, p)
		}
	}

	if c.state == StateDrag {
		c.SetValue(c.ValueAt(p)+c.dragDelta, false)
	}
}

// PointerOut behaves like releasing the pointer where it left.
func (c *Column) PointerOut(p Point) {
	c.PointerUp(p)
}

// DoubleClick jumps straight to the value under p and commits it.
func (c *Column) DoubleClick(p Point) {
	if c.contained(p) {
		c.SetValue(c.ValueAt(p), true)
	}
}

func (c *Column) transition(to State, p Point) {
	if to == c.state {
		return
	}

	switch c.state {
	case StateDrag:
		c.SetValue(c.ValueAt(p)+c.dragDelta, true)
		if to == StateNormal {
			c.cursor = CursorDefault
		}
	case StateHover:
		if to == StateNormal {
			c.cursor = CursorDefault
		}
	}

	switch to {
	case StateDrag:
		c.dragDelta = c.data.Value - c.ValueAt(p)
		c.cursor = CursorResize
	case StateHover:
		c.cursor = CursorResize
	}

	c.state = to
}

func (c *Column) relayout() {
	c.layout = computeLayout(c.bounds, c.metrics, c.rng, c.data.Value)
}

// computeLayout carves the label strip off the bottom of bounds, the hint
// strip off the right of the body, and sizes the fill by value.
func computeLayout(bounds Rect, m Metrics, rng search.Range, value float64) Layout {
	label := Rect{Left: bounds.Left, Top: bounds.Bottom() - m.LabelSize, Width: bounds.Width, Height: m.LabelSize}
	body := Rect{Left: bounds.Left, Top: bounds.Top, Width: bounds.Width, Height: bounds.Height - m.LabelSize}
	hint := Rect{Left: body.Right() - m.HintSize, Top: body.Top, Width: m.HintSize, Height: body.Height}
	fill := fillRect(body, m, rng, value)

	handle := Rect{Left: fill.Left, Top: fill.Top, Width: fill.Width, Height: m.HandleSize}
	handle, _ = handle.Intersect(body)

	return Layout{Bounds: bounds, Label: label, Body: body, Hint: hint, Fill: fill, Handle: handle}
}

func fillRect(body Rect, m Metrics, rng search.Range, value float64) Rect {
	offset := rng.Offset(value)
	if offset < 0 {
		offset = 0
	}
	if offset > 1 {
		offset = 1
	}
	empty := body.Height * (1 - offset)
	return Rect{Left: body.Left, Top: body.Top + empty, Width: body.Width - m.HintSize, Height: body.Height - empty}
}

// Frame renders the column at its current animation position.
func (c *Column) Frame() Frame {
	shown := c.anim.Value()
	fill := FillColor(shown, c.rng)

	steps := c.data.Steps
	if steps <= 0 {
		steps = len(c.data.Hints)
	}

	f := Frame{
		Name:        c.name,
		State:       c.state,
		Cursor:      c.cursor,
		Layout:      c.layout,
		Indicator:   fillRect(c.layout.Body, c.metrics, c.rng, shown),
		FillColor:   fill,
		HandleColor: HandleColor(fill),
		Density:     DensityStops(c.data.Hints, c.rng, c.scale, steps),
	}

	if b := c.data.Bracket; b.Min <= b.Max {
		top := c.yFor(b.Max)
		f.Bracket = Rect{Left: c.layout.Hint.Left, Top: top, Width: c.layout.Hint.Width, Height: c.yFor(b.Min) - top}
		f.ShowBracket = true
	}
	return f
}

// yFor maps a value onto a y coordinate within the body.
func (c *Column) yFor(v float64) float64 {
	body := c.layout.Body
	return body.Top + body.Height*(1-c.rng.Offset(c.rng.Clamp(v)))
}
