package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/corey/hscd/internal/adapters/socket"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves the dashboard and JSON API over HTTP.
type Server struct {
	backend  socket.Backend
	logger   *slog.Logger
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once

	portFilePath string // .hscd/http.port
}

// NewServer creates an HTTP server for the dashboard.
// The portFilePath is where the bound port is written for discovery.
func NewServer(backend socket.Backend, portFilePath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		backend:      backend,
		logger:       logger.With("component", "web"),
		portFilePath: portFilePath,
	}
}

// DefaultPort computes a project-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(projectRoot string) int {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Start begins listening on the preferred port and writes the port file.
func (s *Server) Start(preferredPort int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", preferredPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()

	s.httpSrv = &http.Server{Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second}

	if s.portFilePath != "" {
		if err := os.WriteFile(s.portFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644); err != nil {
			s.logger.Warn("write port file", "path", s.portFilePath, "err", err)
		}
	}

	go s.httpSrv.Serve(ln)
	s.logger.Info("listening", "url", s.URL())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the dashboard URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	// Exact root only; a catch-all would shadow method mismatches under /api/.
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/features", s.handleFeatures)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/presets", s.handleLearn)
	mux.HandleFunc("DELETE /api/presets/{name}", s.handleForget)
	return mux
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.ServeFileFS(w, r, static, "index.html")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, search.ErrInvalidArgument) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, search.ErrInvalidArgument)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := s.backend.Health()
	result.Status = "ok"
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.backend.Features()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.FeaturesResult{Features: features, Count: len(features)})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req ports.QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.backend.ExecuteQuery(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.backend.Presets()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, socket.PresetsResult{Presets: presets, Count: len(presets)})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var params socket.LearnParams
	if err := decodeBody(w, r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	preset, err := s.backend.Learn(params.Name, params.Features)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Forget(r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
