package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// RecordSource is a RecordStore whose contents carry a version that changes
// on every reload.
type RecordSource interface {
	ports.RecordStore
	Version() uint64
}

// Executor answers queries against the live record set: it scores and ranks
// records, then sweeps every feature to build the hint series the graph
// draws.
type Executor struct {
	source RecordSource
	cfg    QueryConfig
	cache  *lru.Cache[string, *ports.QueryResponse] // nil when disabled
	logger *slog.Logger
}

var _ ports.Querier = (*Executor)(nil)

// NewExecutor creates an executor over source.
func NewExecutor(source RecordSource, cfg QueryConfig, logger *slog.Logger) (*Executor, error) {
	if logger == nil {
		logger = NewDiscardLogger()
	}
	e := &Executor{
		source: source,
		cfg:    cfg,
		logger: logger.With("component", "executor"),
	}
	if cfg.CacheSize > 0 {
		c, err := lru.New[string, *ports.QueryResponse](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
		e.cache = c
	}
	return e, nil
}

// CacheLen returns the number of cached responses.
func (e *Executor) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Purge drops every cached response.
func (e *Executor) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// normalize fills request defaults and rejects unusable values.
func (e *Executor) normalize(req ports.QueryRequest) (ports.QueryRequest, search.Range, error) {
	rng := search.DefaultRange()
	if req.Range != nil {
		rng = *req.Range
	}
	if !rng.Valid() || rng.Length() == 0 {
		return req, rng, fmt.Errorf("range [%v, %v]: %w", rng.Min, rng.Max, search.ErrInvalidArgument)
	}
	req.Range = &rng

	switch {
	case req.HintSteps < 0:
		return req, rng, fmt.Errorf("hint steps %d: %w", req.HintSteps, search.ErrInvalidArgument)
	case req.HintSteps == 0:
		req.HintSteps = e.cfg.HintSteps
	}
	switch {
	case req.MaxResults < 0:
		return req, rng, fmt.Errorf("max results %d: %w", req.MaxResults, search.ErrInvalidArgument)
	case req.MaxResults == 0:
		req.MaxResults = e.cfg.MaxResults
	}
	if req.WalkingDist < 0 {
		return req, rng, fmt.Errorf("walking distance %v: %w", req.WalkingDist, search.ErrInvalidArgument)
	}
	if req.SortKey == "" {
		req.SortKey = search.SortByScore
	}
	return req, rng, nil
}

// fixFeatures keeps the weights for features the dataset knows, clamped to
// rng, and sets every other dataset feature to 0.
func fixFeatures(requested search.QueryVector, known []string, rng search.Range) search.QueryVector {
	q := make(search.QueryVector, len(known))
	for _, f := range known {
		q[f] = rng.Clamp(requested[f])
	}
	return q
}

// ExecuteQuery runs one query round-trip.
func (e *Executor) ExecuteQuery(ctx context.Context, req ports.QueryRequest) (*ports.QueryResponse, error) {
	start := time.Now()

	req, rng, err := e.normalize(req)
	if err != nil {
		return nil, err
	}

	version := e.source.Version()
	known, err := e.source.ListFeatures()
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	records, err := e.source.Records()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	req.Features = fixFeatures(req.Features, known, rng)

	var key string
	if e.cache != nil {
		key = cacheKey(version, req)
		if cached, ok := e.cache.Get(key); ok {
			resp := cloneResponse(cached)
			resp.Elapsed = time.Since(start).String()
			return resp, nil
		}
	}

	if req.Geo != nil && req.WalkingDist > 0 {
		records = search.WithinDistance(records, *req.Geo, req.WalkingDist)
	}

	matches := search.Search(records, req.Features, req.MinScore)
	search.SortMatches(matches, req.SortKey, req.SortAsc)
	count := len(matches)
	if len(matches) > req.MaxResults {
		matches = matches[:req.MaxResults]
	}
	if matches == nil {
		matches = []search.Match{}
	}

	columns, err := e.project(ctx, records, req, rng, known)
	if err != nil {
		return nil, err
	}

	resp := &ports.QueryResponse{
		Columns:  columns,
		Items:    matches,
		Count:    count,
		MinScore: req.MinScore,
	}
	if e.cache != nil {
		e.cache.Add(key, cloneResponse(resp))
	}

	out := resp
	out.Elapsed = time.Since(start).String()
	e.logger.Debug("query",
		"session", req.Session,
		"features", len(known),
		"records", len(records),
		"count", count,
		"elapsed", out.Elapsed)
	return out, nil
}

// cloneResponse copies r deeply enough that the caller and the cache never
// share a slice or map.
func cloneResponse(r *ports.QueryResponse) *ports.QueryResponse {
	out := *r
	out.Items = append([]search.Match{}, r.Items...)
	out.Columns = make(map[string]ports.Column, len(r.Columns))
	for name, col := range r.Columns {
		col.Hints = append(search.HintSeries(nil), col.Hints...)
		out.Columns[name] = col
	}
	return &out
}

// project builds every feature's column in parallel. Each goroutine reads
// the shared records and writes only its own slot.
func (e *Executor) project(ctx context.Context, records []search.Record, req ports.QueryRequest, rng search.Range, features []string) (map[string]ports.Column, error) {
	matched := search.Matching(records, req.Features, req.MinScore)
	slots := make([]ports.Column, len(features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, f := range features {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hints, err := search.BuildHints(records, req.Features, req.MinScore, f, rng, req.HintSteps)
			if err != nil {
				return err
			}
			slots[i] = ports.Column{
				Value:   req.Features[f],
				Hints:   hints,
				Steps:   req.HintSteps,
				Bracket: search.Bracket(matched, f),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	columns := make(map[string]ports.Column, len(features))
	for i, f := range features {
		columns[f] = slots[i]
	}
	return columns, nil
}

func cacheKey(version uint64, req ports.QueryRequest) string {
	req.Session = ""
	// encoding/json sorts map keys, so equal requests give equal keys.
	b, _ := json.Marshal(req)
	return fmt.Sprintf("%d:%s", version, b)
}
