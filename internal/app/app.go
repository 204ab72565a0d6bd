// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the hscd daemon: create, start, stop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/corey/hscd/internal/adapters/bbolt"
	fsw "github.com/corey/hscd/internal/adapters/fsnotify"
	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/adapters/web"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Config      *Config

	Store     *bbolt.Store
	Records   *Snapshot
	Executor  *Executor
	Latency   *LatencyTracker
	Watcher   *fsw.Watcher // nil when watching is disabled
	Server    *socket.Server
	WebServer *web.Server

	logger  *slog.Logger
	mu      sync.Mutex // serializes imports and preset writes
	started time.Time
}

var _ socket.Backend = (*App)(nil)

// latencyWindow is the rolling window for the query latency median.
const latencyWindow = 10 * time.Minute

// Options holds initialization parameters for the App.
type Options struct {
	ProjectRoot string
	Config      *Config      // nil = load .hscd/config.yaml
	Logger      *slog.Logger // nil = discard
}

// New creates an App with all dependencies wired. Does not start services.
func New(opts Options) (*App, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewDiscardLogger()
	}

	paths := NewPaths(opts.ProjectRoot)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.Root, err)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := LoadConfig(paths.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := bbolt.NewStore(paths.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ds, err := store.LoadDataset(cfg.Dataset)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	records := NewSnapshot(ds)

	exec, err := NewExecutor(records, cfg.Query, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		ProjectRoot: opts.ProjectRoot,
		Paths:       paths,
		Config:      cfg,
		Store:       store,
		Records:     records,
		Executor:    exec,
		Latency:     NewLatencyTracker(latencyWindow),
		logger:      logger,
	}

	if cfg.Watch {
		w, err := fsw.NewWatcher(0, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		a.Watcher = w
	}

	a.Server = socket.NewServer(a, socket.SocketPath(opts.ProjectRoot), logger)
	a.WebServer = web.NewServer(a, paths.PortFile, logger)

	return a, nil
}

// Start brings up the socket server, the dashboard and the data watcher.
func (a *App) Start() error {
	a.started = time.Now()
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	// HTTP dashboard is non-fatal if the port is unavailable
	httpPort := a.Config.HTTPPort
	if httpPort == 0 {
		httpPort = web.DefaultPort(a.ProjectRoot)
	}
	if err := a.WebServer.Start(httpPort); err != nil {
		a.logger.Warn("HTTP dashboard unavailable", "err", err)
	}
	if a.Watcher != nil {
		if err := a.Watcher.Watch(a.Paths.DataDir, a.onDatasetChanged); err != nil {
			a.logger.Warn("dataset watcher unavailable", "err", err)
		}
	}
	if err := os.WriteFile(a.Paths.PIDFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
		a.logger.Warn("write pid file", "err", err)
	}
	a.logger.Info("started",
		"dataset", a.Config.Dataset,
		"records", a.Records.Len(),
		"socket", a.Server.Addr())
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.WebServer.Stop()
	a.Server.Stop()
	a.Paths.CleanEphemeral()
	return a.Store.Close()
}

// ImportFile reads a dataset file, persists it and swaps it in.
func (a *App) ImportFile(ctx context.Context, path string) (socket.ReloadResult, error) {
	start := time.Now()

	// Parse outside the mutex; only persist and swap are serialized.
	ds, err := LoadDatasetFile(ctx, path, a.logger)
	if err != nil {
		return socket.ReloadResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.Store.SaveDataset(a.Config.Dataset, ds); err != nil {
		return socket.ReloadResult{}, fmt.Errorf("save dataset: %w", err)
	}
	a.Records.Swap(ds)
	a.Executor.Purge()

	result := socket.ReloadResult{
		Records:  len(ds.Records),
		Features: len(ds.Features),
		Elapsed:  time.Since(start).String(),
	}
	a.logger.Info("dataset imported", "path", path, "records", result.Records, "features", result.Features)
	return result, nil
}

// latestDatasetFile returns the most recently modified dataset file in dir.
func latestDatasetFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() || !fsw.IsDatasetFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no dataset file in %s: %w", dir, search.ErrEmptyInput)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].path < found[j].path
		}
		return found[i].mod.After(found[j].mod)
	})
	return found[0].path, nil
}

// ExecuteQuery implements ports.Querier.
func (a *App) ExecuteQuery(ctx context.Context, req ports.QueryRequest) (*ports.QueryResponse, error) {
	start := time.Now()
	resp, err := a.Executor.ExecuteQuery(ctx, req)
	if err == nil {
		a.Latency.Record(time.Since(start))
	}
	return resp, err
}

// Features implements socket.Backend.
func (a *App) Features() ([]string, error) {
	return a.Records.ListFeatures()
}

// Presets implements socket.Backend.
func (a *App) Presets() ([]ports.Preset, error) {
	return a.Store.ListPresets(a.Config.Dataset)
}

// Learn saves features under name. Weights for features the dataset does
// not know are dropped; the rest are clamped to the graph range.
func (a *App) Learn(name string, features search.QueryVector) (ports.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ports.Preset{}, fmt.Errorf("preset name required: %w", search.ErrInvalidArgument)
	}

	known, err := a.Records.ListFeatures()
	if err != nil {
		return ports.Preset{}, err
	}
	rng := a.Config.Graph.Range
	kept := make(search.QueryVector, len(features))
	for _, f := range known {
		if v, ok := features[f]; ok {
			kept[f] = rng.Clamp(v)
		}
	}
	if len(kept) == 0 {
		return ports.Preset{}, fmt.Errorf("preset %q has no known features: %w", name, search.ErrInvalidArgument)
	}

	p := ports.Preset{Name: name, Features: kept, CreatedAt: time.Now().Unix()}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.Store.SavePreset(a.Config.Dataset, p); err != nil {
		return ports.Preset{}, fmt.Errorf("save preset: %w", err)
	}
	return p, nil
}

// Forget deletes a preset. Deleting a missing preset is not an error.
func (a *App) Forget(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("preset name required: %w", search.ErrInvalidArgument)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Store.DeletePreset(a.Config.Dataset, name)
}

// Reload re-imports the newest dataset file in the data directory.
func (a *App) Reload() (socket.ReloadResult, error) {
	path, err := latestDatasetFile(a.Paths.DataDir)
	if err != nil {
		return socket.ReloadResult{}, err
	}
	return a.ImportFile(context.Background(), path)
}

// Health implements socket.Backend.
func (a *App) Health() socket.HealthResult {
	features, _ := a.Records.ListFeatures()
	result := socket.HealthResult{
		Status:       "ok",
		Dataset:      a.Config.Dataset,
		RecordCount:  a.Records.Len(),
		FeatureCount: len(features),
		CacheEntries: a.Executor.CacheLen(),
		Queries:      a.Latency.Total(),
	}
	if p50 := a.Latency.P50(); p50 > 0 {
		result.QueryP50 = p50.String()
	}
	if !a.started.IsZero() {
		result.Uptime = time.Since(a.started).Round(time.Second).String()
	}
	return result
}
