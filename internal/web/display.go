package web

import (
	"html/template"
	"time"

	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/monitor"
)

// displayState is the last state pushed by the monitor.
type displayState struct {
	seq       uint64
	visible   bool
	event     *model.DisplayableEvent
	html      template.HTML
	status    monitor.Status
	panel     bool
	updatedAt time.Time
}

// ShowEvent renders ev and makes it visible.
func (s *Server) ShowEvent(ev model.DisplayableEvent) {
	html, err := s.renderer.Event(ev)
	if err != nil {
		s.logger.Error("render event", "kind", ev.Kind, "message_id", ev.MessageID, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.seq++
	s.state.visible = true
	s.state.event = &ev
	s.state.html = html
	s.state.updatedAt = s.now()
}

// HideEvent hides the current event. Its content stays for the slide-out.
func (s *Server) HideEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.visible = false
	s.state.updatedAt = s.now()
}

// SetStatus updates the status indicator.
func (s *Server) SetStatus(st monitor.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.status = st
	s.state.updatedAt = s.now()
}

// SetStatusPanelVisible shows or hides the diagnostic panel.
func (s *Server) SetStatusPanelVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.panel = visible
	s.state.updatedAt = s.now()
}

// Overlay returns the current display state.
func (s *Server) Overlay() OverlayJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := OverlayJSON{
		Seq:     s.state.seq,
		Visible: s.state.visible,
		HTML:    string(s.state.html),
		Status: StatusJSON{
			Indicator: s.state.status.Indicator.String(),
			Text:      s.state.status.Text,
		},
		StatusPanelVisible: s.state.panel,
		UpdatedAt:          s.state.updatedAt,
	}
	if s.state.event != nil {
		ev := *s.state.event
		out.Event = &ev
	}
	return out
}

var _ monitor.Display = (*Server)(nil)
