// Package server provides the HTTP server for the projsync daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/grovetools/projsync/internal/daemon/engine"
	"github.com/grovetools/projsync/internal/daemon/metrics"
	"github.com/grovetools/projsync/pkg/localfiles"
	"github.com/grovetools/projsync/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RunningConfig is what GET /api/config reports: the settings the daemon
// resolved at startup.
type RunningConfig struct {
	ScanInterval time.Duration `json:"scan_interval"`
	Debounce     time.Duration `json:"debounce"`
	HashWorkers  int           `json:"hash_workers"`
	IndexPath    string        `json:"index_path,omitempty"`
	Projects     int           `json:"projects"`
	StartedAt    time.Time     `json:"started_at"`
}

// Server exposes the daemon's inventory over HTTP on a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	engine        *engine.Engine
	runningConfig *RunningConfig
}

func New(logger *logrus.Entry) *Server {
	return &Server{
		logger: logger,
	}
}

// SetEngine attaches the engine whose store the API serves.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// Handler returns the daemon's HTTP API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/files", s.withEngine(s.handleGetFiles))
	mux.HandleFunc("GET /api/files/{id}", s.withEngine(s.handleGetProjectFiles))
	mux.HandleFunc("GET /api/stream", s.withEngine(s.handleStream))
	mux.HandleFunc("GET /api/schema", s.handleGetSchema)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.Handle("GET /metrics", metrics.Handler())

	return metrics.Middleware(mux)
}

// ListenAndServe serves the API on socketPath until Shutdown. A socket file
// left by a previous run is replaced.
func (s *Server) ListenAndServe(socketPath string) error {
	listener, err := listenUnix(socketPath)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// listenUnix listens on path with owner-only permissions.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// withEngine answers 503 until SetEngine has been called.
func (s *Server) withEngine(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.engine == nil {
			http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handleGetFiles returns the full inventory as JSON.
func (s *Server) handleGetFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Store().GetFiles())
}

// handleGetProjectFiles returns one project's files, or 404.
func (s *Server) handleGetProjectFiles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	files, ok := s.engine.Store().GetProject(models.ProjectID(id))
	if !ok {
		http.Error(w, "project has no local files", http.StatusNotFound)
		return
	}
	writeJSON(w, files)
}

// handleGetSchema returns the JSON schema of /api/files.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, localfiles.InventorySchema())
}

// handleGetConfig returns the running configuration as JSON.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.runningConfig)
}

// changeEvent matches localfiles.ChangeEvent on the wire.
type changeEvent struct {
	Type      string           `json:"type"`
	ProjectID models.ProjectID `json:"project_id,omitempty"`
}

// handleStream provides Server-Sent Events (SSE) for inventory changes.
// Events carry no data beyond what changed; clients re-fetch /api/files.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.engine.Store().Subscribe()
	defer s.engine.Store().Unsubscribe(ch)
	metrics.SSEConnected(1)
	defer metrics.SSEConnected(-1)

	// Initial comment confirms the connection.
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(changeEvent{Type: string(u.Type), ProjectID: u.ProjectID})
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal update")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			metrics.RecordSSEEvent(string(u.Type))
		}
	}
}
