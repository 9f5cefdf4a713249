package monitor

import "fmt"

// reportHealth recomputes the status text. Informational only, apart from
// requesting a reconnect when no open transport exists.
func (m *Monitor) reportHealth() {
	if m.socket == nil {
		m.setStatus(Status{Indicator: StateDisconnected, Text: "No connection"})
		m.scheduleReconnect()
		return
	}
	if !m.transportOpen() {
		m.setStatus(Status{Indicator: StateDisconnected, Text: "Disconnected"})
		m.scheduleReconnect()
		return
	}

	now := m.clock.Now()
	age := now.Sub(m.connectedAt)
	if m.connectedAt.IsZero() || age < 0 {
		age = 0
	}
	text := fmt.Sprintf("Connected (%dm %ds)", int64(age.Minutes()), int64(age.Seconds())%60)

	if !m.hb.lastPongAt.IsZero() && now.Sub(m.hb.lastPongAt) > 2*m.cfg.HeartbeatInterval {
		text += " - No heartbeat"
	}

	m.setStatus(Status{Indicator: StateConnected, Text: text})
}
