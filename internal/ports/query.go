package ports

import (
	"context"

	"github.com/corey/hscd/internal/domain/search"
)

// QueryRequest is one search round-trip: the weights the user has set plus
// how hints should be built.
type QueryRequest struct {
	Features    search.QueryVector `json:"features"`
	Range       *search.Range      `json:"range,omitempty"`
	MinScore    float64            `json:"minScore"`
	HintSteps   int                `json:"hintSteps,omitempty"`
	MaxResults  int                `json:"maxResults,omitempty"`
	WalkingDist float64            `json:"walkingDist,omitempty"`
	Geo         *search.Geo        `json:"geo,omitempty"`
	SortKey     string             `json:"sortKey,omitempty"`
	SortAsc     bool               `json:"sortAsc,omitempty"`

	// Session tags the request for logging only. It is not part of the
	// query and does not affect caching.
	Session string `json:"session,omitempty"`
}

// Column is the per-feature part of a response.
type Column struct {
	Value   float64           `json:"value"`
	Hints   search.HintSeries `json:"hints"`
	Steps   int               `json:"steps"`
	Bracket search.Range      `json:"bracket"`
}

// QueryResponse carries the ranked items and one Column per feature.
type QueryResponse struct {
	Columns  map[string]Column `json:"columns"`
	Items    []search.Match    `json:"items"`
	Count    int               `json:"count"`
	MinScore float64           `json:"minScore"`
	Elapsed  string            `json:"elapsed"`
}

// Querier executes queries. The app executor implements it in-process; the
// socket client implements it against a running daemon.
type Querier interface {
	ExecuteQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}
