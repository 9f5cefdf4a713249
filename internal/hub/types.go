package hub

import (
	"errors"
	"time"

	"github.com/rickgao/overlay-monitor/internal/auth"
	"github.com/rickgao/overlay-monitor/internal/metrics"
)

// ErrClosed is returned by Broadcast after Close.
var ErrClosed = errors.New("hub closed")

// Welcome is the data of the greeting sent to every new client.
const Welcome = "Connected to overlay relay"

// PongData is the data of every heartbeat response.
const PongData = "heartbeat response"

// Config configures a Hub.
type Config struct {
	WriteTimeout    time.Duration // Per-message write deadline
	CleanupInterval time.Duration // How often silent clients are reaped
	MaxSilence      time.Duration // Longest allowed gap between pings
	Credentials     *auth.Credentials
	Metrics         *metrics.Relay
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    5 * time.Second,
		CleanupInterval: 60 * time.Second,
		MaxSilence:      2 * time.Minute,
	}
}

// ClientInfo describes a connected overlay.
type ClientInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	LastPing    time.Time `json:"last_ping"`
}
