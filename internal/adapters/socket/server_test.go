package socket

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Unix Socket Daemon: JSON-over-socket protocol for query, presets, health,
// shutdown
// =============================================================================

// fakeBackend answers from a fixed record set.
type fakeBackend struct {
	mu      sync.Mutex
	records []search.Record
	presets map[string]ports.Preset
	reloads int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		records: []search.Record{
			{ID: 1, Name: "Sushi Dai", URL: "/r/1", Rating: map[string]float64{"delicious": 0.9, "affordable": -0.4}},
			{ID: 2, Name: "Ichiran", URL: "/r/2", Rating: map[string]float64{"delicious": 0.5, "affordable": 0.6}},
			{ID: 3, Name: "Afuri", URL: "/r/3", Rating: map[string]float64{"delicious": 0.1, "affordable": 0.3}},
		},
		presets: make(map[string]ports.Preset),
	}
}

func (b *fakeBackend) ExecuteQuery(_ context.Context, req ports.QueryRequest) (*ports.QueryResponse, error) {
	if req.HintSteps < 0 {
		return nil, fmt.Errorf("hint steps %d: %w", req.HintSteps, search.ErrInvalidArgument)
	}
	items := search.Search(b.records, req.Features, req.MinScore)
	return &ports.QueryResponse{Items: items, Count: len(items), MinScore: req.MinScore, Elapsed: "1ms"}, nil
}

func (b *fakeBackend) Features() ([]string, error) {
	return []string{"affordable", "delicious"}, nil
}

func (b *fakeBackend) Presets() ([]ports.Preset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ports.Preset, 0, len(b.presets))
	for _, p := range b.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *fakeBackend) Learn(name string, features search.QueryVector) (ports.Preset, error) {
	if name == "" {
		return ports.Preset{}, fmt.Errorf("empty preset name: %w", search.ErrInvalidArgument)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := ports.Preset{Name: name, Features: features, CreatedAt: 1}
	b.presets[name] = p
	return p, nil
}

func (b *fakeBackend) Forget(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.presets, name)
	return nil
}

func (b *fakeBackend) Reload() (ReloadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads++
	return ReloadResult{Records: len(b.records), Features: 2, Elapsed: "1ms"}, nil
}

func (b *fakeBackend) Health() HealthResult {
	return HealthResult{Dataset: "reviews", RecordCount: len(b.records), FeatureCount: 2}
}

// testSocketPath returns a unique socket path for a test.
func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func startServer(t *testing.T, backend Backend) (*Server, *Client) {
	t.Helper()
	sockPath := testSocketPath(t)
	srv := NewServer(backend, sockPath, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })
	return srv, NewClient(sockPath)
}

func TestServer_QueryRoundtrip(t *testing.T) {
	_, client := startServer(t, newFakeBackend())

	result, err := client.ExecuteQuery(context.Background(), ports.QueryRequest{
		Features: search.QueryVector{"delicious": 1},
		MinScore: 0.3,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, "Sushi Dai", result.Items[0].Name)
	assert.Equal(t, 0.9, result.Items[0].Score)
	assert.Equal(t, "Ichiran", result.Items[1].Name)
	assert.Equal(t, 0.3, result.MinScore)
}

func TestServer_InvalidArgumentCarriesSentinel(t *testing.T) {
	_, client := startServer(t, newFakeBackend())

	_, err := client.ExecuteQuery(context.Background(), ports.QueryRequest{HintSteps: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, search.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "hint steps -1")
}

func TestServer_Features(t *testing.T) {
	_, client := startServer(t, newFakeBackend())

	result, err := client.Features()
	require.NoError(t, err)
	assert.Equal(t, []string{"affordable", "delicious"}, result.Features)
	assert.Equal(t, 2, result.Count)
}

func TestServer_PresetLifecycle(t *testing.T) {
	_, client := startServer(t, newFakeBackend())

	p, err := client.Learn("cheap eats", search.QueryVector{"affordable": 1})
	require.NoError(t, err)
	assert.Equal(t, "cheap eats", p.Name)

	_, err = client.Learn("", search.QueryVector{"affordable": 1})
	assert.ErrorIs(t, err, search.ErrInvalidArgument)

	list, err := client.Presets()
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, search.QueryVector{"affordable": 1}, list.Presets[0].Features)

	require.NoError(t, client.Forget("cheap eats"))
	list, err = client.Presets()
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
}

func TestServer_Reload(t *testing.T) {
	backend := newFakeBackend()
	_, client := startServer(t, backend)

	result, err := client.Reload()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Records)
	assert.Equal(t, 1, backend.reloads)
}

func TestServer_Health(t *testing.T) {
	_, client := startServer(t, newFakeBackend())

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "reviews", health.Dataset)
	assert.Equal(t, 3, health.RecordCount)
	assert.NotEmpty(t, health.Uptime)
}

func TestServer_Shutdown(t *testing.T) {
	sockPath := testSocketPath(t)
	srv := NewServer(newFakeBackend(), sockPath, nil)
	require.NoError(t, srv.Start())

	client := NewClient(sockPath)
	assert.True(t, client.Ping())

	require.NoError(t, client.Shutdown())

	select {
	case <-srv.ShutdownCh():
	case <-time.After(2 * time.Second):
		t.Fatal("ShutdownCh should be closed after Shutdown request")
	}

	// The daemon is responsible for calling Stop() after receiving the signal.
	srv.Stop()
	srv.Stop()

	_, err := os.Stat(sockPath)
	assert.True(t, os.IsNotExist(err), "socket file should be removed after shutdown")
	assert.False(t, client.Ping())
}

func TestServer_ConcurrentClients(t *testing.T) {
	srv, _ := startServer(t, newFakeBackend())

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	// 10 clients x 10 requests each
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := NewClient(srv.Addr())
			for j := 0; j < 10; j++ {
				result, err := client.ExecuteQuery(context.Background(), ports.QueryRequest{
					Features: search.QueryVector{"delicious": 1},
				})
				if err != nil {
					errs <- err
					return
				}
				if result.Count != 3 {
					errs <- assert.AnError
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent client error: %v", err)
	}
}

func TestServer_StaleSocket(t *testing.T) {
	sockPath := testSocketPath(t)

	// Create a stale socket file (not a real listener)
	require.NoError(t, os.WriteFile(sockPath, []byte("stale"), 0600))

	srv := NewServer(newFakeBackend(), sockPath, nil)
	require.NoError(t, srv.Start(), "should replace stale socket")
	defer srv.Stop()

	health, err := NewClient(sockPath).Health()
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestServer_AlreadyRunning(t *testing.T) {
	srv, _ := startServer(t, newFakeBackend())

	second := NewServer(newFakeBackend(), srv.Addr(), nil)
	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestSocketPath_Stable(t *testing.T) {
	a := SocketPath("/home/user/project")
	assert.Equal(t, a, SocketPath("/home/user/project"))
	assert.NotEqual(t, a, SocketPath("/home/user/other"))
	assert.Regexp(t, `^/tmp/hscd-[0-9a-f]{12}\.sock$`, a)
}
