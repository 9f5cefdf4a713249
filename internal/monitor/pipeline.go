package monitor

import (
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/router"
)

func (m *Monitor) onMessage(msg connection.TimestampedMessage) {
	m.metrics.MessagesReceived++

	in, err := m.router.Classify(msg.Data, msg.ReceivedAt)
	if err != nil {
		m.metrics.ParseErrors++
		m.logger.Warn("dropping malformed message", "error", err, "bytes", len(msg.Data))
		return
	}

	switch in.Kind {
	case router.KindPong:
		m.handlePong()
	case router.KindDisplayable:
		m.acceptEvent(in.Event)
	}
}

// acceptEvent shows ev now when idle, otherwise queues it.
func (m *Monitor) acceptEvent(ev model.DisplayableEvent) {
	if m.displaying {
		m.queue.Send(ev)
		m.metrics.EventsQueued++
		m.logger.Debug("event queued", "kind", ev.Kind, "queued", m.queue.Len())
		return
	}
	m.showEvent(ev)
}

func (m *Monitor) showEvent(ev model.DisplayableEvent) {
	m.displaying = true
	m.active = &ev
	m.metrics.EventsDisplayed++

	m.display.ShowEvent(ev)
	m.hideTimer = m.clock.AfterFunc(m.displayDuration, m.onDisplayExpired)

	m.logger.Info("displaying event", "kind", ev.Kind, "message_id", ev.MessageID, "duration", m.displayDuration)
}

func (m *Monitor) onDisplayExpired() {
	m.hideTimer = nil
	m.finishActive()
}

// ForceHideEvent ends the active event early. No-op when idle.
func (m *Monitor) ForceHideEvent() {
	if !m.displaying {
		return
	}
	stopTimer(&m.hideTimer)
	m.finishActive()
}

// finishActive hides and acknowledges the active event, then advances.
func (m *Monitor) finishActive() {
	m.display.HideEvent()
	m.active = nil
	m.sendAcknowledgment()
	m.processNextEvent()
}

// processNextEvent shows the oldest queued event, if any.
func (m *Monitor) processNextEvent() {
	m.displaying = false

	next, ok := m.queue.TryReceive()
	if !ok {
		return
	}
	m.logger.Debug("processing next event", "remaining", m.queue.Len())
	m.showEvent(next)
}

func (m *Monitor) sendAcknowledgment() {
	if !m.transportOpen() {
		m.metrics.AcksDropped++
		m.logger.Warn("cannot send acknowledgment, not connected")
		return
	}

	data, err := model.NewAcknowledgment(m.clock.Now()).Encode()
	if err != nil {
		m.logger.Error("encode acknowledgment", "error", err)
		return
	}
	if err := m.socket.Send(data); err != nil {
		m.metrics.AcksDropped++
		m.logger.Warn("acknowledgment send failed", "error", err)
		return
	}
	m.metrics.AcksSent++
}
