package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rickgao/overlay-monitor/internal/api"
	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/poller"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#A6E3A1"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAB387"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#313244")).
			Padding(0, 1)
)

// stateStyle colors a connection state.
func stateStyle(s monitor.ConnectionState) lipgloss.Style {
	switch s {
	case monitor.StateConnected:
		return okStyle
	case monitor.StateConnecting:
		return warnStyle
	default:
		return errorStyle
	}
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func readyLine(rs *api.ReadyStateResponse) string {
	if !rs.Exists {
		return errorStyle.Render("no socket")
	}
	if rs.ReadyState == "OPEN" {
		return okStyle.Render(rs.ReadyState)
	}
	return warnStyle.Render(rs.ReadyState)
}

// since formats the age of t, or "-" when t is zero.
func since(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return now.Sub(t).Truncate(time.Second).String() + " ago"
}

func renderStatus(s *monitor.Snapshot) string {
	now := time.Now()
	rows := []string{
		titleStyle.Render("Overlay monitor"),
		row("state", stateStyle(s.State).Render(s.State.String())),
		row("status", stateStyle(s.Status.Indicator).Render(s.Status.Text)),
		row("socket", s.ReadyState),
		row("reconnects", fmt.Sprintf("%d (pending: %v)", s.ReconnectAttempts, s.Reconnecting)),
		row("heartbeat", s.HeartbeatPhase),
		row("last ping", since(s.LastPingAt, now)),
		row("last pong", since(s.LastPongAt, now)),
		row("queue", fmt.Sprintf("%d", s.QueueDepth)),
		row("duration", (time.Duration(s.DisplayDurationMs) * time.Millisecond).String()),
		row("panel", fmt.Sprintf("%v", s.StatusPanelVisible)),
	}
	if s.Active != nil {
		what := s.Active.Body
		if s.Active.HasImage() {
			what = s.Active.Username + " " + s.Active.ImagePath
		}
		rows = append(rows, row("showing", string(s.Active.Kind)+": "+truncate(what, 48)))
	}
	for i, ev := range s.Queued {
		if i == 3 {
			rows = append(rows, row("", fmt.Sprintf("... %d more", len(s.Queued)-i)))
			break
		}
		rows = append(rows, row(fmt.Sprintf("next %d", i+1), string(ev.Kind)+": "+truncate(ev.Body+ev.ImagePath, 48)))
	}
	rows = append(rows,
		row("received", fmt.Sprintf("%d", s.Metrics.MessagesReceived)),
		row("displayed", fmt.Sprintf("%d", s.Metrics.EventsDisplayed)),
		row("acks", fmt.Sprintf("%d sent, %d dropped", s.Metrics.AcksSent, s.Metrics.AcksDropped)),
		row("hb timeouts", fmt.Sprintf("%d", s.Metrics.HeartbeatTimeouts)),
	)
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func renderHealth(h *api.HealthResponse) string {
	style := okStyle
	if h.Status != "healthy" {
		style = warnStyle
	}
	rows := []string{
		titleStyle.Render("Overlay health"),
		row("status", style.Render(h.Status)),
		row("connection", h.Connection),
		row("text", h.StatusText),
		row("queue", fmt.Sprintf("%d", h.QueueDepth)),
		row("uptime", (time.Duration(h.UptimeSeconds) * time.Second).String()),
		row("version", h.Version.Version+" ("+h.Version.Commit+")"),
	}
	if h.Error != "" {
		rows = append(rows, row("error", errorStyle.Render(h.Error)))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

// resultLine is one watch line: time, target, status and detail.
func resultLine(r poller.Result) string {
	ts := labelStyle.Render(r.At.Format("15:04:05"))
	switch {
	case r.Err != nil:
		return ts + " " + r.Target + " " + errorStyle.Render("unreachable") + " " + r.Err.Error()
	case r.Healthy():
		return ts + " " + r.Target + " " + okStyle.Render(r.Health.Status) +
			fmt.Sprintf(" %s queue=%d %s", r.Health.StatusText, r.Health.QueueDepth, r.Latency.Round(time.Millisecond))
	default:
		return ts + " " + r.Target + " " + warnStyle.Render(r.Health.Status) +
			fmt.Sprintf(" %s queue=%d", r.Health.StatusText, r.Health.QueueDepth)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
