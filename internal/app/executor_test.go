package app

import (
	"context"
	"errors"
	"testing"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Query executor: ranking, per-feature projection, defaults, cache
// =============================================================================

func testDataset() *ports.Dataset {
	return &ports.Dataset{
		Features: []string{"affordable", "delicious"},
		Records: []search.Record{
			{ID: 1, Name: "Sushi Dai", Rating: map[string]float64{"delicious": 0.9, "affordable": -0.4},
				Geo: &search.Geo{Latitude: 35.6655, Longitude: 139.7707}},
			{ID: 2, Name: "Ichiran", Rating: map[string]float64{"delicious": 0.5, "affordable": 0.6},
				Geo: &search.Geo{Latitude: 35.6610, Longitude: 139.7005}},
			{ID: 3, Name: "Afuri", Rating: map[string]float64{"delicious": 0.1, "affordable": 0.3}},
		},
		Source: "test",
	}
}

func newTestExecutor(t *testing.T, cacheSize int) (*Executor, *Snapshot) {
	t.Helper()
	snap := NewSnapshot(testDataset())
	cfg := DefaultConfig().Query
	cfg.CacheSize = cacheSize
	exec, err := NewExecutor(snap, cfg, nil)
	require.NoError(t, err)
	return exec, snap
}

func TestExecuteQuery_RanksAndProjects(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{
		Features: search.QueryVector{"delicious": 1},
		MinScore: 0.3,
	})
	require.NoError(t, err)

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "Sushi Dai", resp.Items[0].Name)
	assert.Equal(t, "Ichiran", resp.Items[1].Name)
	assert.Equal(t, 0.3, resp.MinScore)
	assert.NotEmpty(t, resp.Elapsed)

	// One column per dataset feature, absent ones defaulting to 0.
	require.Len(t, resp.Columns, 2)
	assert.Equal(t, 1.0, resp.Columns["delicious"].Value)
	assert.Equal(t, 0.0, resp.Columns["affordable"].Value)

	col := resp.Columns["delicious"]
	assert.Equal(t, 20, col.Steps)
	require.Len(t, col.Hints, 20)
	assert.InDelta(t, 0.95, col.Hints[0].Sample, 1e-9)
	assert.Equal(t, 2, col.Hints[0].Count, "weight near 1 matches the two tasty places")
	assert.Equal(t, 0, col.Hints[19].Count, "negative weight matches nothing at minScore 0.3")

	// Hints agree with a direct projection.
	want, err := search.BuildHints(testDataset().Records, search.QueryVector{"delicious": 1, "affordable": 0}, 0.3, "affordable", search.DefaultRange(), 20)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Columns["affordable"].Hints)
}

func TestExecuteQuery_DropsUnknownAndClamps(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{
		Features: search.QueryVector{"delicious": 5, "spiciness": 1},
	})
	require.NoError(t, err)

	_, unknown := resp.Columns["spiciness"]
	assert.False(t, unknown)
	assert.Equal(t, 1.0, resp.Columns["delicious"].Value)
}

func TestExecuteQuery_RequestDoesNotLeak(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)
	features := search.QueryVector{"delicious": 0.5}

	_, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{Features: features})
	require.NoError(t, err)
	assert.Equal(t, search.QueryVector{"delicious": 0.5}, features)
}

func TestExecuteQuery_MaxResultsAndSort(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{
		Features:   search.QueryVector{"delicious": 1},
		MinScore:   -1,
		MaxResults: 2,
		SortKey:    search.SortByName,
		SortAsc:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Count, "count is taken before truncation")
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Afuri", resp.Items[0].Name)
	assert.Equal(t, "Ichiran", resp.Items[1].Name)
}

func TestExecuteQuery_GeoFilter(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	// Tsukiji; Sushi Dai is a few hundred meters away, Ichiran ~6km.
	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{
		Features:    search.QueryVector{"delicious": 1},
		MinScore:    -1,
		Geo:         &search.Geo{Latitude: 35.6654, Longitude: 139.7707},
		WalkingDist: 1,
	})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Sushi Dai", resp.Items[0].Name)
}

func TestExecuteQuery_EmptyResultIsNotNil(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{MinScore: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Items)
}

func TestExecuteQuery_InvalidArguments(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)

	tests := []struct {
		name string
		req  ports.QueryRequest
	}{
		{"negative steps", ports.QueryRequest{HintSteps: -1}},
		{"negative max results", ports.QueryRequest{MaxResults: -1}},
		{"empty range", ports.QueryRequest{Range: &search.Range{Min: 0.5, Max: 0.5}}},
		{"inverted range", ports.QueryRequest{Range: &search.Range{Min: 1, Max: -1}}},
		{"negative walking distance", ports.QueryRequest{WalkingDist: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := exec.ExecuteQuery(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, search.ErrInvalidArgument))
		})
	}
}

func TestExecuteQuery_Cancelled(t *testing.T) {
	exec, _ := newTestExecutor(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.ExecuteQuery(ctx, ports.QueryRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecuteQuery_CacheHitAndInvalidation(t *testing.T) {
	exec, snap := newTestExecutor(t, 8)
	req := ports.QueryRequest{Features: search.QueryVector{"delicious": 1}, MinScore: 0.3}

	first, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.CacheLen())

	second, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.CacheLen(), "identical request is served from cache")
	assert.Equal(t, first.Items, second.Items)

	// A reload bumps the version, so the old entry is never served.
	ds := testDataset()
	ds.Records = ds.Records[:1]
	snap.Swap(ds)

	third, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Count)
	assert.Equal(t, 2, exec.CacheLen())

	exec.Purge()
	assert.Equal(t, 0, exec.CacheLen())
}

func TestExecuteQuery_CachedResponseIsNotShared(t *testing.T) {
	exec, _ := newTestExecutor(t, 8)
	req := ports.QueryRequest{Features: search.QueryVector{"delicious": 1}, MinScore: 0.3}

	first, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	first.Items[0].Name = "scribbled"
	first.Columns["delicious"].Hints[0].Count = -1
	delete(first.Columns, "affordable")

	second, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Sushi Dai", second.Items[0].Name)
	assert.Equal(t, 2, second.Columns["delicious"].Hints[0].Count)
	assert.Contains(t, second.Columns, "affordable")

	second.Items[0].Name = "scribbled again"
	third, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Sushi Dai", third.Items[0].Name)
}

func TestExecuteQuery_SessionDoesNotSplitCache(t *testing.T) {
	exec, _ := newTestExecutor(t, 8)
	req := ports.QueryRequest{Features: search.QueryVector{"delicious": 1}, Session: "a"}

	_, err := exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	req.Session = "b"
	_, err = exec.ExecuteQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.CacheLen())
}

func TestExecuteQuery_EmptyStore(t *testing.T) {
	exec, err := NewExecutor(NewSnapshot(nil), DefaultConfig().Query, nil)
	require.NoError(t, err)

	resp, err := exec.ExecuteQuery(context.Background(), ports.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Columns)
}

func TestSnapshot_SwapAndVersion(t *testing.T) {
	snap := NewSnapshot(nil)
	assert.Equal(t, uint64(1), snap.Version())
	assert.Equal(t, 0, snap.Len())

	snap.Swap(testDataset())
	assert.Equal(t, uint64(2), snap.Version())
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, "test", snap.Source())

	features, err := snap.ListFeatures()
	require.NoError(t, err)
	features[0] = "mutated"
	again, _ := snap.ListFeatures()
	assert.Equal(t, "affordable", again[0], "ListFeatures returns a copy")
}
