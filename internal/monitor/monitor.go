package monitor

import (
	"log/slog"
	"time"

	"github.com/rickgao/overlay-monitor/internal/clock"
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/router"
)

// Monitor is the overlay engine. It is not safe for concurrent use.
type Monitor struct {
	cfg     Config
	clock   clock.Clock
	dialer  connection.Dialer
	display Display
	router  *router.Router
	logger  *slog.Logger

	// Connection manager
	state          ConnectionState
	policy         ReconnectPolicy
	reconnecting   bool
	reconnectTimer clock.Timer
	supervisor     clock.Timer
	socket         connection.Socket
	epoch          uint64 // Bumped whenever the socket is replaced
	connectedAt    time.Time

	// Heartbeat supervisor
	hb heartbeat

	// Event pipeline
	queue           *router.GrowableBuffer[model.DisplayableEvent]
	displaying      bool
	active          *model.DisplayableEvent
	hideTimer       clock.Timer
	displayDuration time.Duration

	// Health reporter
	healthTimer  clock.Timer
	status       Status
	panelVisible bool

	metrics metrics.Overlay
	started bool
	stopped bool
}

// New creates a monitor. Nothing happens until Start.
func New(cfg Config, clk clock.Clock, dialer connection.Dialer, display Display, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "monitor")

	return &Monitor{
		cfg:     cfg,
		clock:   clk,
		dialer:  dialer,
		display: display,
		router:  router.New(logger),
		logger:  logger,
		state:   StateDisconnected,
		policy: ReconnectPolicy{
			Base: cfg.ReconnectBase,
			Max:  cfg.ReconnectMax,
		},
		queue:           router.NewGrowableBuffer[model.DisplayableEvent](16),
		displayDuration: cfg.DisplayDuration,
		panelVisible:    cfg.StatusPanelVisible,
	}
}

// Start opens the first connection and starts the supervisor and health
// reporter. Calling it again has no effect.
func (m *Monitor) Start() {
	if m.started || m.stopped {
		return
	}
	m.started = true

	m.display.SetStatusPanelVisible(m.panelVisible)
	m.connect()

	m.supervisor = m.clock.Every(m.cfg.SupervisorInterval, m.superviseTick)
	m.healthTimer = m.clock.Every(m.cfg.HealthInterval, m.reportHealth)

	m.logger.Info("monitor started", "url", m.cfg.URL)
}

// Shutdown cancels every timer and closes the transport. Queued events are
// kept but never shown.
func (m *Monitor) Shutdown() {
	if m.stopped {
		return
	}
	m.stopped = true

	stopTimer(&m.supervisor)
	stopTimer(&m.healthTimer)
	stopTimer(&m.reconnectTimer)
	stopTimer(&m.hideTimer)
	m.reconnecting = false
	m.stopHeartbeat()
	m.closeTransport()
	m.setState(StateDisconnected, "Disconnected")

	m.logger.Info("monitor stopped", "queued", m.queue.Len())
}

// SetDisplayDuration changes how long subsequent events stay on screen.
func (m *Monitor) SetDisplayDuration(d time.Duration) {
	if d <= 0 {
		m.logger.Warn("ignoring non-positive display duration", "duration", d)
		return
	}
	m.displayDuration = d
	m.logger.Info("display duration changed", "duration", d)
}

// ShowStatusPanel shows the diagnostic status panel.
func (m *Monitor) ShowStatusPanel() { m.setPanel(true) }

// HideStatusPanel hides the diagnostic status panel.
func (m *Monitor) HideStatusPanel() { m.setPanel(false) }

// ToggleStatusPanel flips the diagnostic status panel.
func (m *Monitor) ToggleStatusPanel() { m.setPanel(!m.panelVisible) }

func (m *Monitor) setPanel(visible bool) {
	m.panelVisible = visible
	m.display.SetStatusPanelVisible(visible)
}

// ReadyState returns the transport's ready state. The boolean is false when
// no transport exists.
func (m *Monitor) ReadyState() (connection.ReadyState, bool) {
	if m.socket == nil {
		return connection.StateClosed, false
	}
	return m.socket.ReadyState(), true
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() Snapshot {
	s := Snapshot{
		State:              m.state,
		Status:             m.status,
		ReadyState:         "NONE",
		ReconnectAttempts:  m.policy.Attempts,
		Reconnecting:       m.reconnecting,
		ConnectedAt:        m.connectedAt,
		HeartbeatPhase:     m.hb.phase.String(),
		LastPingAt:         m.hb.lastPingAt,
		LastPongAt:         m.hb.lastPongAt,
		Displaying:         m.displaying,
		QueueDepth:         m.queue.Len(),
		Queued:             m.queue.Items(),
		DisplayDurationMs:  m.displayDuration.Milliseconds(),
		StatusPanelVisible: m.panelVisible,
		Metrics:            m.metrics,
		Router:             m.router.Stats(),
	}
	if rs, ok := m.ReadyState(); ok {
		s.ReadyState = rs.String()
	}
	if m.active != nil {
		ev := *m.active
		s.Active = &ev
	}
	return s
}

// stopTimer stops *t if set and clears it.
func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
