package monitor

import (
	"time"

	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/router"
)

// ConnectionState is the connection manager's view of the transport.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the lower-case name of s.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MarshalText encodes s by name.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a name written by MarshalText. Unknown names decode
// as StateDisconnected.
func (s *ConnectionState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "connecting":
		*s = StateConnecting
	case "connected":
		*s = StateConnected
	default:
		*s = StateDisconnected
	}
	return nil
}

// Status is what the status indicator shows. Indicator usually tracks the
// connection state but the health reporter may set it independently.
type Status struct {
	Indicator ConnectionState `json:"indicator"`
	Text      string          `json:"text"`
}

// Display presents events and status. The monitor calls it only from its
// own goroutine.
type Display interface {
	ShowEvent(ev model.DisplayableEvent)
	HideEvent()
	SetStatus(st Status)
	SetStatusPanelVisible(visible bool)
}

// Config holds monitor timings.
type Config struct {
	URL                string        // Relay socket URL
	ReconnectBase      time.Duration // Backoff base
	ReconnectMax       time.Duration // Backoff cap
	SupervisorInterval time.Duration // Transport readiness check
	HeartbeatInterval  time.Duration
	HeartbeatTimeout   time.Duration
	HealthInterval     time.Duration
	DisplayDuration    time.Duration
	StatusPanelVisible bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectBase:      1 * time.Second,
		ReconnectMax:       30 * time.Second,
		SupervisorInterval: 5 * time.Second,
		HeartbeatInterval:  30 * time.Second,
		HeartbeatTimeout:   20 * time.Second,
		HealthInterval:     5 * time.Second,
		DisplayDuration:    10 * time.Second,
	}
}

type heartbeatPhase int

const (
	phaseIdle heartbeatPhase = iota
	phaseArmed
	phaseAwaitingPong
)

func (p heartbeatPhase) String() string {
	switch p {
	case phaseArmed:
		return "armed"
	case phaseAwaitingPong:
		return "awaiting_pong"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of monitor state.
type Snapshot struct {
	State              ConnectionState          `json:"state"`
	Status             Status                   `json:"status"`
	ReadyState         string                   `json:"readyState"`
	ReconnectAttempts  uint                     `json:"reconnectAttempts"`
	Reconnecting       bool                     `json:"reconnecting"`
	ConnectedAt        time.Time                `json:"connectedAt,omitempty"`
	HeartbeatPhase     string                   `json:"heartbeatPhase"`
	LastPingAt         time.Time                `json:"lastPingAt,omitempty"`
	LastPongAt         time.Time                `json:"lastPongAt,omitempty"`
	Displaying         bool                     `json:"displaying"`
	Active             *model.DisplayableEvent  `json:"active,omitempty"`
	QueueDepth         int                      `json:"queueDepth"`
	Queued             []model.DisplayableEvent `json:"queued,omitempty"` // Waiting events, oldest first
	DisplayDurationMs  int64                    `json:"displayDurationMs"`
	StatusPanelVisible bool                     `json:"statusPanelVisible"`
	Metrics            metrics.Overlay          `json:"metrics"`
	Router             router.Stats             `json:"router"`
}
