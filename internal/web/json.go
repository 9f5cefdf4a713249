package web

import (
	"time"

	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/version"
)

// OverlayJSON is what the page polls to mirror the display.
type OverlayJSON struct {
	Seq                uint64                  `json:"seq"` // Incremented for every shown event
	Visible            bool                    `json:"visible"`
	HTML               string                  `json:"html"`
	Event              *model.DisplayableEvent `json:"event,omitempty"`
	Status             StatusJSON              `json:"status"`
	StatusPanelVisible bool                    `json:"status_panel_visible"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// StatusJSON is the status indicator and text.
type StatusJSON struct {
	Indicator string `json:"indicator"`
	Text      string `json:"text"`
}

// ReadyStateJSON reports the transport ready state.
type ReadyStateJSON struct {
	ReadyState string `json:"ready_state"`
	Exists     bool   `json:"exists"`
}

// DurationRequest sets the display duration in milliseconds.
type DurationRequest struct {
	Ms int64 `json:"ms"`
}

// PanelRequest shows, hides or toggles the status panel.
type PanelRequest struct {
	Visible *bool `json:"visible,omitempty"`
	Toggle  bool  `json:"toggle,omitempty"`
}

// HealthJSON is the /health response.
type HealthJSON struct {
	Status        string       `json:"status"`
	Connection    string       `json:"connection,omitempty"`
	StatusText    string       `json:"status_text,omitempty"`
	QueueDepth    int          `json:"queue_depth"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Version       version.Info `json:"version"`
	Error         string       `json:"error,omitempty"`
}
