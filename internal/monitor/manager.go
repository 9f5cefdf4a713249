package monitor

import (
	"fmt"

	"github.com/rickgao/overlay-monitor/internal/connection"
)

// connect replaces the transport with a fresh dial to the relay.
func (m *Monitor) connect() {
	if m.stopped {
		return
	}
	m.reconnecting = false
	m.reconnectTimer = nil

	m.setState(StateConnecting, "Connecting...")
	m.closeTransport()

	epoch := m.epoch
	sock, err := m.dialer.Dial(m.cfg.URL, connection.Handler{
		OnOpen: func() {
			if epoch == m.epoch {
				m.onOpen()
			}
		},
		OnMessage: func(msg connection.TimestampedMessage) {
			if epoch == m.epoch {
				m.onMessage(msg)
			}
		},
		OnClose: func(err error) {
			if epoch == m.epoch {
				m.onClose(err)
			}
		},
	})
	if err != nil {
		m.logger.Error("connection failed", "url", m.cfg.URL, "error", err)
		m.setState(StateDisconnected, "Connection failed")
		m.scheduleReconnect()
		return
	}

	m.socket = sock
	m.logger.Debug("dialing", "url", m.cfg.URL, "epoch", epoch)
}

func (m *Monitor) onOpen() {
	m.logger.Info("connected", "url", m.cfg.URL)
	m.setState(StateConnected, "Connected")
	m.policy.Reset()
	stopTimer(&m.reconnectTimer)
	m.reconnecting = false
	m.connectedAt = m.clock.Now()
	m.metrics.ConnectionsOpened++
	m.startHeartbeat()
}

func (m *Monitor) onClose(err error) {
	if err != nil {
		m.logger.Warn("connection closed", "error", err)
	} else {
		m.logger.Info("connection closed")
	}
	m.setState(StateDisconnected, "Disconnected")
	m.stopHeartbeat()
	m.scheduleReconnect()
}

// scheduleReconnect arms a single reconnect timer with backoff. It is a
// no-op while one is already pending.
func (m *Monitor) scheduleReconnect() {
	if m.reconnecting || m.stopped {
		return
	}
	m.reconnecting = true

	delay := m.policy.Next()
	attempt := m.policy.Attempts
	m.metrics.ReconnectsScheduled++

	m.setState(StateConnecting, fmt.Sprintf("Reconnecting in %ds... (attempt %d)", ceilSeconds(delay), attempt))
	m.logger.Info("reconnect scheduled", "delay", delay, "attempt", attempt)

	m.reconnectTimer = m.clock.AfterFunc(delay, m.connect)
}

// Reconnect drops the current transport and dials again immediately,
// cancelling any pending backoff.
func (m *Monitor) Reconnect() {
	if m.stopped {
		return
	}
	m.logger.Info("manual reconnect")

	m.policy.Reset()
	stopTimer(&m.reconnectTimer)
	m.reconnecting = false
	m.stopHeartbeat()
	m.connect()
}

// superviseTick is the safety net for missed close events.
func (m *Monitor) superviseTick() {
	if !m.transportOpen() {
		m.scheduleReconnect()
	}
}

// closeTransport closes the socket and invalidates its callbacks.
func (m *Monitor) closeTransport() {
	m.epoch++
	if m.socket == nil {
		return
	}
	if err := m.socket.Close(); err != nil {
		m.logger.Debug("close transport", "error", err)
	}
	m.socket = nil
}

func (m *Monitor) transportOpen() bool {
	return m.socket != nil && m.socket.ReadyState() == connection.StateOpen
}

func (m *Monitor) setState(state ConnectionState, text string) {
	m.state = state
	m.setStatus(Status{Indicator: state, Text: text})
}

func (m *Monitor) setStatus(st Status) {
	m.status = st
	m.display.SetStatus(st)
}
