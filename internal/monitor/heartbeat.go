package monitor

import (
	"time"

	"github.com/rickgao/overlay-monitor/internal/clock"
	"github.com/rickgao/overlay-monitor/internal/model"
)

// heartbeat is the liveness probe state for the current connection.
type heartbeat struct {
	phase      heartbeatPhase
	interval   clock.Timer
	timeout    clock.Timer // Non-nil while a ping is outstanding
	lastPingAt time.Time
	lastPongAt time.Time
}

// startHeartbeat (re)arms the ping interval. Repeated calls never leave
// more than one interval running.
func (m *Monitor) startHeartbeat() {
	m.stopHeartbeat()
	m.hb.interval = m.clock.Every(m.cfg.HeartbeatInterval, m.heartbeatTick)
	m.hb.phase = phaseArmed
}

// stopHeartbeat cancels the interval and any outstanding timeout.
func (m *Monitor) stopHeartbeat() {
	stopTimer(&m.hb.interval)
	stopTimer(&m.hb.timeout)
	m.hb.phase = phaseIdle
}

func (m *Monitor) heartbeatTick() {
	if !m.transportOpen() {
		return
	}
	if m.hb.timeout != nil {
		// Previous ping still outstanding.
		return
	}

	now := m.clock.Now()
	data, err := model.NewPing(now).Encode()
	if err != nil {
		m.logger.Error("encode ping", "error", err)
		return
	}
	if err := m.socket.Send(data); err != nil {
		m.logger.Warn("heartbeat ping failed", "error", err)
		return
	}

	m.hb.lastPingAt = now
	m.hb.timeout = m.clock.AfterFunc(m.cfg.HeartbeatTimeout, m.heartbeatTimedOut)
	m.hb.phase = phaseAwaitingPong
	m.metrics.PingsSent++
	m.logger.Debug("heartbeat ping sent")
}

func (m *Monitor) heartbeatTimedOut() {
	m.hb.timeout = nil
	m.metrics.HeartbeatTimeouts++
	m.logger.Warn("heartbeat timeout, connection may be dead",
		"last_ping", m.hb.lastPingAt,
		"timeout", m.cfg.HeartbeatTimeout,
	)
	m.Reconnect()
}

// handlePong records a heartbeat response.
func (m *Monitor) handlePong() {
	m.hb.lastPongAt = m.clock.Now()
	m.metrics.PongsReceived++
	stopTimer(&m.hb.timeout)
	if m.hb.phase == phaseAwaitingPong {
		m.hb.phase = phaseArmed
	}
	m.logger.Debug("heartbeat response received")
}
