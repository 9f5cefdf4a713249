package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rickgao/overlay-monitor/internal/auth"
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/render"
	"github.com/rickgao/overlay-monitor/internal/version"
)

// Controls is the monitor control surface used by the HTTP handlers.
// *monitor.Controller implements it.
type Controls interface {
	SetDisplayDuration(ctx context.Context, d time.Duration) error
	ShowStatusPanel(ctx context.Context) error
	HideStatusPanel(ctx context.Context) error
	ToggleStatusPanel(ctx context.Context) error
	ForceHideEvent(ctx context.Context) error
	Reconnect(ctx context.Context) error
	ReadyState(ctx context.Context) (connection.ReadyState, bool, error)
	Snapshot(ctx context.Context) (monitor.Snapshot, error)
}

// Options configures a Server.
type Options struct {
	Addr         string
	Title        string
	PollInterval time.Duration     // Page refresh of /overlay.json
	Credentials  *auth.Credentials // nil disables control authentication
	Renderer     *render.Renderer  // nil renders in local time
}

// controlTimeout bounds how long a handler waits on the event loop.
const controlTimeout = 5 * time.Second

// Server is the overlay display and control server.
type Server struct {
	httpServer *http.Server
	controls   Controls
	renderer   *render.Renderer
	opts       Options
	logger     *slog.Logger
	started    time.Time
	now        func() time.Time

	mu    sync.RWMutex
	state displayState
}

// New creates a Server. Controls may be set later with SetControls but
// must be set before the server accepts requests.
func New(opts Options, controls Controls, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New(nil)
	}

	s := &Server{
		controls: controls,
		renderer: opts.Renderer,
		opts:     opts,
		logger:   logger.With("component", "web"),
		now:      time.Now,
	}
	s.started = s.now()

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetControls sets the monitor control surface.
func (s *Server) SetControls(c Controls) {
	s.controls = c
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /overlay.json", s.handleOverlay)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	control := http.NewServeMux()
	control.HandleFunc("POST /control/hide", s.handleHide)
	control.HandleFunc("POST /control/reconnect", s.handleReconnect)
	control.HandleFunc("POST /control/duration", s.handleDuration)
	control.HandleFunc("POST /control/status-panel", s.handlePanel)
	control.HandleFunc("GET /control/ready-state", s.handleReadyState)
	mux.Handle("/control/", s.opts.Credentials.Middleware(control))

	return mux
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("display server listening", "addr", s.opts.Addr)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderIndex(w, s.opts, s.Overlay()); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, s.Overlay())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
	defer cancel()

	snap, err := s.controls.Snapshot(ctx)
	if err != nil {
		s.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
	defer cancel()

	health := HealthJSON{
		Status:        "healthy",
		UptimeSeconds: int64(s.now().Sub(s.started).Seconds()),
		Version:       version.Current(),
	}

	snap, err := s.controls.Snapshot(ctx)
	if err != nil {
		health.Status = "unhealthy"
		health.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	health.Connection = snap.State.String()
	health.StatusText = snap.Status.Text
	health.QueueDepth = snap.QueueDepth
	if snap.State != monitor.StateConnected {
		health.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) unavailable(w http.ResponseWriter, err error) {
	s.logger.Warn("monitor unavailable", "error", err)
	http.Error(w, "monitor unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
