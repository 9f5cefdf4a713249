package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// maxControlBody caps control request bodies.
const maxControlBody = 1 << 10

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, "hide", s.controls.ForceHideEvent)
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, "reconnect", s.controls.Reconnect)
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	var req DurationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Ms <= 0 {
		http.Error(w, "ms must be positive", http.StatusBadRequest)
		return
	}

	d := time.Duration(req.Ms) * time.Millisecond
	s.control(w, r, "duration", func(ctx context.Context) error {
		return s.controls.SetDisplayDuration(ctx, d)
	})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	var req PanelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.Toggle:
		s.control(w, r, "panel toggle", s.controls.ToggleStatusPanel)
	case req.Visible == nil:
		http.Error(w, `expected "visible" or "toggle"`, http.StatusBadRequest)
	case *req.Visible:
		s.control(w, r, "panel show", s.controls.ShowStatusPanel)
	default:
		s.control(w, r, "panel hide", s.controls.HideStatusPanel)
	}
}

func (s *Server) handleReadyState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
	defer cancel()

	state, ok, err := s.controls.ReadyState(ctx)
	if err != nil {
		s.unavailable(w, err)
		return
	}

	resp := ReadyStateJSON{ReadyState: "NONE", Exists: ok}
	if ok {
		resp.ReadyState = state.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// control runs op against the monitor and answers 204 on success.
func (s *Server) control(w http.ResponseWriter, r *http.Request, name string, op func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
	defer cancel()

	if err := op(ctx); err != nil {
		s.unavailable(w, err)
		return
	}
	s.logger.Info("control", "op", name, "remote", r.RemoteAddr, "agent", r.UserAgent())
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxControlBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
