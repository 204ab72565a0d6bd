package socket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// Backend provides the daemon's operations to the server handlers.
// Thread safety is the implementor's responsibility.
type Backend interface {
	ports.Querier
	Features() ([]string, error)
	Presets() ([]ports.Preset, error)
	Learn(name string, features search.QueryVector) (ports.Preset, error)
	Forget(name string) error
	Reload() (ReloadResult, error)
	Health() HealthResult
}

// Server is the daemon that listens on a Unix socket and serves queries.
type Server struct {
	backend  Backend
	logger   *slog.Logger
	listener net.Listener
	sockPath string
	started  time.Time

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by backend. A nil logger discards
// output.
func NewServer(backend Backend, sockPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		backend:    backend,
		logger:     logger.With("component", "socket"),
		sockPath:   sockPath,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first. If the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("listening", "socket", s.sockPath)
	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call after a remote shutdown and again on signal.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON", Code: CodeInvalidArgument})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodQuery:
		return s.handleQuery(req)
	case MethodFeatures:
		return s.handleFeatures(req)
	case MethodPresets:
		return s.handlePresets(req)
	case MethodLearn:
		return s.handleLearn(req)
	case MethodForget:
		return s.handleForget(req)
	case MethodReload:
		return s.handleReload(req)
	case MethodHealth:
		return s.handleHealth(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method), Code: CodeInvalidArgument}
	}
}

// decodeParams re-marshals the loosely typed params into target.
func decodeParams(req Request, target interface{}) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, target)
}

func (s *Server) fail(req Request, err error) Response {
	code := CodeInternal
	if errors.Is(err, search.ErrInvalidArgument) {
		code = CodeInvalidArgument
	} else {
		s.logger.Error("request failed", "method", req.Method, "id", req.ID, "err", err)
	}
	return Response{ID: req.ID, Error: err.Error(), Code: code}
}

func (s *Server) handleQuery(req Request) Response {
	var params QueryParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid query params", Code: CodeInvalidArgument}
	}

	result, err := s.backend.ExecuteQuery(s.ctx, params)
	if err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleFeatures(req Request) Response {
	features, err := s.backend.Features()
	if err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: FeaturesResult{Features: features, Count: len(features)}}
}

func (s *Server) handlePresets(req Request) Response {
	presets, err := s.backend.Presets()
	if err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: PresetsResult{Presets: presets, Count: len(presets)}}
}

func (s *Server) handleLearn(req Request) Response {
	var params LearnParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid learn params", Code: CodeInvalidArgument}
	}

	preset, err := s.backend.Learn(params.Name, params.Features)
	if err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: preset}
}

func (s *Server) handleForget(req Request) Response {
	var params ForgetParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid forget params", Code: CodeInvalidArgument}
	}
	if err := s.backend.Forget(params.Name); err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: struct{}{}}
}

func (s *Server) handleReload(req Request) Response {
	result, err := s.backend.Reload()
	if err != nil {
		return s.fail(req, err)
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleHealth(req Request) Response {
	result := s.backend.Health()
	result.Status = "ok"
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{ID: resp.ID, Error: "internal marshal error", Code: CodeInternal})
	}
	data = append(data, '\n')
	conn.Write(data)
}
