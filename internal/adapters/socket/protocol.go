// Package socket implements a JSON-over-Unix-socket protocol for the hscd daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// SocketPath returns the Unix socket path for a given project root.
// Format: /tmp/hscd-{first12hex}.sock
func SocketPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/hscd-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodQuery    = "query"
	MethodFeatures = "features"
	MethodPresets  = "presets"
	MethodLearn    = "learn"
	MethodForget   = "forget"
	MethodHealth   = "health"
	MethodReload   = "reload"
	MethodShutdown = "shutdown"
)

// Error codes carried alongside Response.Error.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeInternal        = "internal"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Code   string      `json:"code,omitempty"`
}

// QueryParams is ports.QueryRequest on the wire.
type QueryParams = ports.QueryRequest

// QueryResult is ports.QueryResponse on the wire.
type QueryResult = ports.QueryResponse

// FeaturesResult lists the dataset's features.
type FeaturesResult struct {
	Features []string `json:"features"`
	Count    int      `json:"count"`
}

// PresetsResult lists saved presets.
type PresetsResult struct {
	Presets []ports.Preset `json:"presets"`
	Count   int            `json:"count"`
}

// LearnParams saves the given vector under Name.
type LearnParams struct {
	Name     string             `json:"name"`
	Features search.QueryVector `json:"features"`
}

// ForgetParams deletes the preset called Name.
type ForgetParams struct {
	Name string `json:"name"`
}

// ReloadResult reports a dataset reload.
type ReloadResult struct {
	Records  int    `json:"records"`
	Features int    `json:"features"`
	Elapsed  string `json:"elapsed"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status       string `json:"status"`
	Dataset      string `json:"dataset"`
	RecordCount  int    `json:"record_count"`
	FeatureCount int    `json:"feature_count"`
	CacheEntries int    `json:"cache_entries"`
	Queries      int    `json:"queries"`
	QueryP50     string `json:"query_p50,omitempty"`
	Uptime       string `json:"uptime"`
}
