package grapher

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/corey/hscd/internal/domain/scale"
	"github.com/corey/hscd/internal/domain/search"
)

// Option customizes a Graph.
type Option func(*Graph)

// WithClock replaces time.Now as the animation clock.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) { g.now = now }
}

// WithMetrics overrides the per-column label, hint and handle sizes.
func WithMetrics(m Metrics) Option {
	return func(g *Graph) { g.metrics = m }
}

// Graph owns the columns of one search, keyed by feature name.
type Graph struct {
	cfg     Config
	bounds  Rect
	metrics Metrics
	now     func() time.Time

	columns map[string]*Column
	order   []string

	onValueChanged ValueChangedFunc
}

// NewGraph validates cfg and returns an empty graph drawn into bounds.
// bounds is in client coordinates; its origin is subtracted from every
// pointer event. Empty bounds are rejected.
func NewGraph(cfg Config, bounds Rect, onValueChanged ValueChangedFunc, opts ...Option) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("graph bounds %vx%v: %w", bounds.Width, bounds.Height, ErrInvalidConfig)
	}

	g := &Graph{
		cfg:            cfg,
		bounds:         bounds,
		metrics:        DefaultMetrics(),
		now:            time.Now,
		columns:        make(map[string]*Column),
		onValueChanged: onValueChanged,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the current configuration.
func (g *Graph) Config() Config { return g.cfg }

// SetColumns creates columns for features seen for the first time and
// updates existing ones in place. Scales are recomputed over every column the
// graph holds. Nothing changes if the scale cannot be derived.
func (g *Graph) SetColumns(data map[string]ColumnData) error {
	if len(data) == 0 {
		return fmt.Errorf("set columns: no columns: %w", search.ErrInvalidArgument)
	}

	merged := make(map[string]search.HintSeries, len(g.columns)+len(data))
	for name, col := range g.columns {
		merged[name] = col.Hints()
	}
	for name, d := range data {
		merged[name] = d.Hints
	}

	scales, err := scale.ForColumns(merged, g.cfg.UseLocalScale, g.cfg.UseRelativeScale)
	if err != nil {
		return fmt.Errorf("set columns: %w", err)
	}

	var added []string
	for name := range data {
		if _, ok := g.columns[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)

	for _, name := range added {
		g.columns[name] = newColumn(name, g.cfg.Range, g.metrics, Rect{}, data[name], scales[name], g.now, g.emit)
		g.order = append(g.order, name)
	}
	for name, d := range data {
		if slices.Contains(added, name) {
			continue
		}
		g.columns[name].Update(d, scales[name])
	}
	for name, col := range g.columns {
		col.SetScale(scales[name])
	}

	if len(added) > 0 {
		g.relayout()
	}
	return nil
}

// SetUseLocalScale switches between per-column and shared scales.
func (g *Graph) SetUseLocalScale(v bool) error {
	if v == g.cfg.UseLocalScale {
		return nil
	}
	g.cfg.UseLocalScale = v
	return g.rescale()
}

// SetUseRelativeScale switches the scale floor between 0 and the smallest
// count.
func (g *Graph) SetUseRelativeScale(v bool) error {
	if v == g.cfg.UseRelativeScale {
		return nil
	}
	g.cfg.UseRelativeScale = v
	return g.rescale()
}

// SetDisplayType changes the statistic the density strip shows.
func (g *Graph) SetDisplayType(t DisplayType) error {
	if t == g.cfg.DisplayType {
		return nil
	}
	cfg := g.cfg
	cfg.DisplayType = t
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.cfg = cfg
	return g.rescale()
}

func (g *Graph) rescale() error {
	if len(g.columns) == 0 {
		return nil
	}

	byColumn := make(map[string]search.HintSeries, len(g.columns))
	for name, col := range g.columns {
		byColumn[name] = col.Hints()
	}
	scales, err := scale.ForColumns(byColumn, g.cfg.UseLocalScale, g.cfg.UseRelativeScale)
	if err != nil {
		return fmt.Errorf("rescale: %w", err)
	}
	for name, col := range g.columns {
		col.SetScale(scales[name])
	}
	return nil
}

// Clear drops every column.
func (g *Graph) Clear() {
	g.columns = make(map[string]*Column)
	g.order = nil
}

// Column returns the named column.
func (g *Graph) Column(name string) (*Column, error) {
	col, ok := g.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return col, nil
}

// Columns returns the columns in display order.
func (g *Graph) Columns() []*Column {
	out := make([]*Column, len(g.order))
	for i, name := range g.order {
		out[i] = g.columns[name]
	}
	return out
}

// ColumnNames returns feature names in display order.
func (g *Graph) ColumnNames() []string {
	return append([]string(nil), g.order...)
}

// Cursor is CursorResize when any column wants it.
func (g *Graph) Cursor() Cursor {
	for _, col := range g.columns {
		if col.Cursor() == CursorResize {
			return CursorResize
		}
	}
	return CursorDefault
}

// Step advances every animation and reports whether any is still running.
func (g *Graph) Step(now time.Time) bool {
	running := false
	for _, col := range g.columns {
		if col.Step(now) {
			running = true
		}
	}
	return running
}

// Frames renders every column in display order.
func (g *Graph) Frames() []Frame {
	frames := make([]Frame, 0, len(g.order))
	for _, col := range g.Columns() {
		frames = append(frames, col.Frame())
	}
	return frames
}

// PointerDown dispatches a press at client position p to every column.
func (g *Graph) PointerDown(p Point) { g.each(p, (*Column).PointerDown) }

// PointerUp dispatches a release.
func (g *Graph) PointerUp(p Point) { g.each(p, (*Column).PointerUp) }

// PointerMove dispatches a move.
func (g *Graph) PointerMove(p Point) { g.each(p, (*Column).PointerMove) }

// PointerOut dispatches the pointer leaving the surface.
func (g *Graph) PointerOut(p Point) { g.each(p, (*Column).PointerOut) }

// DoubleClick dispatches a double click.
func (g *Graph) DoubleClick(p Point) { g.each(p, (*Column).DoubleClick) }

func (g *Graph) each(client Point, fn func(*Column, Point)) {
	local := Point{X: client.X - g.bounds.Left, Y: client.Y - g.bounds.Top}
	for _, col := range g.Columns() {
		fn(col, local)
	}
}

func (g *Graph) emit(name string, value float64) {
	if g.onValueChanged != nil {
		g.onValueChanged(name, value)
	}
}

// relayout spreads the columns evenly across the surface with padding on
// both sides of each.
func (g *Graph) relayout() {
	count := len(g.order)
	if count == 0 {
		return
	}
	section := g.bounds.Width / float64(count)
	width := section - g.cfg.Padding*2
	if width < 0 {
		width = 0
	}
	for i, name := range g.order {
		g.columns[name].SetBounds(Rect{
			Left:   section*float64(i) + g.cfg.Padding,
			Top:    0,
			Width:  width,
			Height: g.bounds.Height,
		})
	}
}
