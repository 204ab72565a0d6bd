package cmd

import (
	"context"
	"fmt"

	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/app"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// backend is what the CLI commands need, served either by the running
// daemon or by an in-process app when no daemon is up.
type backend interface {
	ports.Querier
	Features() ([]string, error)
	Presets() ([]ports.Preset, error)
	Learn(name string, features search.QueryVector) (ports.Preset, error)
	Forget(name string) error
	Close() error
}

// daemonBackend forwards to the daemon over its socket.
type daemonBackend struct {
	client *socket.Client
}

func (d daemonBackend) ExecuteQuery(ctx context.Context, req ports.QueryRequest) (*ports.QueryResponse, error) {
	return d.client.ExecuteQuery(ctx, req)
}

func (d daemonBackend) Features() ([]string, error) {
	r, err := d.client.Features()
	if err != nil {
		return nil, err
	}
	return r.Features, nil
}

func (d daemonBackend) Presets() ([]ports.Preset, error) {
	r, err := d.client.Presets()
	if err != nil {
		return nil, err
	}
	return r.Presets, nil
}

func (d daemonBackend) Learn(name string, features search.QueryVector) (ports.Preset, error) {
	p, err := d.client.Learn(name, features)
	if err != nil {
		return ports.Preset{}, err
	}
	return *p, nil
}

func (d daemonBackend) Forget(name string) error { return d.client.Forget(name) }

func (d daemonBackend) Close() error { return nil }

// localBackend runs the app in-process without starting any server.
type localBackend struct {
	*app.App
}

func (l localBackend) Close() error { return l.Store.Close() }

// openBackend prefers the running daemon and falls back to opening the
// project database directly.
func openBackend(root, command string) (backend, error) {
	client := socket.NewClient(socket.SocketPath(root))
	if client.Ping() {
		return daemonBackend{client: client}, nil
	}

	a, err := openLocalApp(root, command)
	if err != nil {
		return nil, err
	}
	return localBackend{a}, nil
}

// openLocalApp opens the project without the watcher. The caller closes
// a.Store.
func openLocalApp(root, command string) (*app.App, error) {
	paths := app.NewPaths(root)
	cfg, err := app.LoadConfig(paths.Config)
	if err != nil {
		return nil, err
	}
	cfg.Watch = false

	a, err := app.New(app.Options{ProjectRoot: root, Config: cfg})
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("cannot open project: %s", diagnoseDBLock(root, command))
		}
		return nil, err
	}
	return a, nil
}
