package monitor

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rickgao/overlay-monitor/internal/clock"
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/model"
)

var epoch0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeSocket is a transport whose lifecycle the test drives by hand.
type fakeSocket struct {
	state   connection.ReadyState
	h       connection.Handler
	sent    [][]byte
	closes  int
	sendErr error
	clk     *clock.Virtual
}

func (s *fakeSocket) ReadyState() connection.ReadyState { return s.state }

func (s *fakeSocket) Send(data []byte) error {
	if s.state != connection.StateOpen {
		return connection.ErrNotConnected
	}
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, data)
	return nil
}

func (s *fakeSocket) Close() error {
	s.closes++
	s.state = connection.StateClosed
	return nil
}

// open completes the handshake.
func (s *fakeSocket) open() {
	s.state = connection.StateOpen
	s.h.OnOpen()
}

// drop simulates the peer going away.
func (s *fakeSocket) drop(err error) {
	s.state = connection.StateClosed
	s.h.OnClose(err)
}

// deliver pushes an inbound message.
func (s *fakeSocket) deliver(raw string) {
	s.h.OnMessage(connection.TimestampedMessage{Data: []byte(raw), ReceivedAt: s.clk.Now()})
}

// sentTypes returns the "type" field of every message sent.
func (s *fakeSocket) sentTypes(t *testing.T) []model.MessageType {
	t.Helper()
	var out []model.MessageType
	for _, data := range s.sent {
		var c model.Control
		if err := json.Unmarshal(data, &c); err != nil {
			t.Fatalf("sent invalid JSON %q: %v", data, err)
		}
		out = append(out, c.Type)
	}
	return out
}

func (s *fakeSocket) count(t *testing.T, typ model.MessageType) int {
	t.Helper()
	n := 0
	for _, got := range s.sentTypes(t) {
		if got == typ {
			n++
		}
	}
	return n
}

type fakeDialer struct {
	clk     *clock.Virtual
	sockets []*fakeSocket
	urls    []string
	err     error
}

func (d *fakeDialer) Dial(rawURL string, h connection.Handler) (connection.Socket, error) {
	d.urls = append(d.urls, rawURL)
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeSocket{state: connection.StateConnecting, h: h, clk: d.clk}
	d.sockets = append(d.sockets, s)
	return s, nil
}

func (d *fakeDialer) last(t *testing.T) *fakeSocket {
	t.Helper()
	if len(d.sockets) == 0 {
		t.Fatal("no socket dialed")
	}
	return d.sockets[len(d.sockets)-1]
}

// recordingDisplay records every call and tracks how many events are on
// screen at once.
type recordingDisplay struct {
	shown      []model.DisplayableEvent
	hides      int
	visible    int
	maxVisible int
	statuses   []Status
	panel      bool
}

func (d *recordingDisplay) ShowEvent(ev model.DisplayableEvent) {
	d.shown = append(d.shown, ev)
	d.visible++
	if d.visible > d.maxVisible {
		d.maxVisible = d.visible
	}
}

func (d *recordingDisplay) HideEvent() {
	d.hides++
	d.visible--
}

func (d *recordingDisplay) SetStatus(st Status)          { d.statuses = append(d.statuses, st) }
func (d *recordingDisplay) SetStatusPanelVisible(v bool) { d.panel = v }

func (d *recordingDisplay) lastStatus() Status {
	if len(d.statuses) == 0 {
		return Status{}
	}
	return d.statuses[len(d.statuses)-1]
}

func (d *recordingDisplay) sawStatus(text string) bool {
	for _, st := range d.statuses {
		if st.Text == text {
			return true
		}
	}
	return false
}

type harness struct {
	clk     *clock.Virtual
	dialer  *fakeDialer
	display *recordingDisplay
	m       *Monitor
}

func newVirtual() *clock.Virtual {
	return clock.NewVirtual(epoch0)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.URL = "ws://overlay.test/ws"
	return cfg
}

// newHarness builds a started monitor. The first socket is dialed but not open.
func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	clk := newVirtual()
	h := &harness{
		clk:     clk,
		dialer:  &fakeDialer{clk: clk},
		display: &recordingDisplay{},
	}
	h.m = New(cfg, clk, h.dialer, h.display, nil)
	h.m.Start()
	return h
}

// connected returns a harness whose first socket is open.
func connected(t *testing.T, cfg Config) (*harness, *fakeSocket) {
	t.Helper()
	h := newHarness(t, cfg)
	s := h.dialer.last(t)
	s.open()
	return h, s
}

func queueMessage(body, id string) string {
	data, _ := json.Marshal(map[string]any{
		"type":      "queue_message",
		"data":      map[string]string{"body": body, "messageId": id},
		"timestamp": "2024-01-01T00:00:00Z",
	})
	return string(data)
}

var errPeerGone = errors.New("peer went away")
