// Package explorer ties a Graph to query round-trips. A Session owns the
// query vector for one top-level search, patches it as columns are dragged,
// and applies responses back onto the graph, dropping any that arrive after
// a newer one has already been shown.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/corey/hscd/internal/domain/grapher"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

var (
	ErrStaleResponse = errors.New("stale response")
	ErrNoSession     = errors.New("no search in progress")
)

// Ticket identifies one issued query.
type Ticket struct {
	Seq     uint64
	Request ports.QueryRequest
}

// Session is the application state for exploring one dataset.
//
// Begin and Apply may be called from different goroutines. Everything that
// touches the graph (pointer events, Apply, Search) must run on one goroutine.
type Session struct {
	id      string
	querier ports.Querier
	graph   *grapher.Graph
	base    ports.QueryRequest

	mu       sync.Mutex
	features search.QueryVector
	issued   uint64
	applied  uint64
	fence    uint64 // tickets up to here belong to an earlier search
	pending  bool
	last     *ports.QueryResponse
}

// NewSession builds a session and its graph. base supplies the request
// fields that stay fixed across adjustments (min score, hint steps, sort).
func NewSession(querier ports.Querier, cfg grapher.Config, bounds grapher.Rect, base ports.QueryRequest, opts ...grapher.Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		querier: querier,
		base:    base,
	}

	g, err := grapher.NewGraph(cfg, bounds, s.adjust, opts...)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.graph = g
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Graph returns the graph the session drives.
func (s *Session) Graph() *grapher.Graph { return s.graph }

// Features returns a copy of the current query vector.
func (s *Session) Features() search.QueryVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.features.Clone()
}

// Pending reports whether a committed adjustment has not been queried yet.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Last returns the most recently applied response, or nil.
func (s *Session) Last() *ports.QueryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Search starts a new top-level search: the graph is cleared and the first
// response creates its columns.
func (s *Session) Search(ctx context.Context, features search.QueryVector) error {
	s.mu.Lock()
	s.features = features.Clone()
	s.last = nil
	s.pending = false
	s.fence = s.issued
	s.mu.Unlock()

	s.graph.Clear()
	return s.Refresh(ctx)
}

// Refresh issues a query for the current vector and applies the response.
func (s *Session) Refresh(ctx context.Context) error {
	t, err := s.Begin()
	if err != nil {
		return err
	}
	resp, err := s.querier.ExecuteQuery(ctx, t.Request)
	if err != nil {
		return fmt.Errorf("query %d: %w", t.Seq, err)
	}
	return s.Apply(t, resp)
}

// Begin snapshots the current vector into a new, numbered request.
func (s *Session) Begin() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.features == nil {
		return Ticket{}, ErrNoSession
	}
	s.issued++
	s.pending = false

	req := s.base
	req.Features = s.features.Clone()
	req.Session = s.id
	return Ticket{Seq: s.issued, Request: req}, nil
}

// Apply shows resp on the graph unless a response to a later ticket has
// already been applied, or the ticket was issued before the current search
// started. Either way ErrStaleResponse is returned and nothing changes.
func (s *Session) Apply(t Ticket, resp *ports.QueryResponse) error {
	s.mu.Lock()
	if t.Seq <= s.applied {
		s.mu.Unlock()
		return fmt.Errorf("ticket %d, applied %d: %w", t.Seq, s.applied, ErrStaleResponse)
	}
	if t.Seq <= s.fence {
		s.mu.Unlock()
		return fmt.Errorf("ticket %d predates search at %d: %w", t.Seq, s.fence, ErrStaleResponse)
	}
	s.applied = t.Seq
	s.last = resp
	s.mu.Unlock()

	if len(resp.Columns) == 0 {
		return nil
	}

	data := make(map[string]grapher.ColumnData, len(resp.Columns))
	for name, col := range resp.Columns {
		data[name] = grapher.ColumnData{
			Value:   col.Value,
			Hints:   col.Hints,
			Steps:   col.Steps,
			Bracket: col.Bracket,
		}
	}
	if err := s.graph.SetColumns(data); err != nil {
		return fmt.Errorf("apply %d: %w", t.Seq, err)
	}
	return nil
}

// adjust receives committed column values from the graph.
func (s *Session) adjust(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.features == nil {
		s.features = search.QueryVector{}
	}
	s.features[name] = value
	s.pending = true
}
