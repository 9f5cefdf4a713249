package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/overlay-monitor/internal/auth"
	"github.com/rickgao/overlay-monitor/internal/clock"
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/model"
	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/render"
)

// fakeControls records calls and answers from canned state.
type fakeControls struct {
	calls    []string
	duration time.Duration
	ready    connection.ReadyState
	hasSock  bool
	snap     monitor.Snapshot
	err      error
}

func (f *fakeControls) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeControls) SetDisplayDuration(_ context.Context, d time.Duration) error {
	f.duration = d
	return f.record("duration")
}
func (f *fakeControls) ShowStatusPanel(context.Context) error   { return f.record("show") }
func (f *fakeControls) HideStatusPanel(context.Context) error   { return f.record("hide-panel") }
func (f *fakeControls) ToggleStatusPanel(context.Context) error { return f.record("toggle") }
func (f *fakeControls) ForceHideEvent(context.Context) error    { return f.record("hide") }
func (f *fakeControls) Reconnect(context.Context) error         { return f.record("reconnect") }

func (f *fakeControls) ReadyState(context.Context) (connection.ReadyState, bool, error) {
	return f.ready, f.hasSock, f.err
}

func (f *fakeControls) Snapshot(context.Context) (monitor.Snapshot, error) {
	return f.snap, f.err
}

func newTestServer(t *testing.T, creds *auth.Credentials) (*httptest.Server, *Server, *fakeControls) {
	t.Helper()
	fc := &fakeControls{}
	srv := New(Options{
		Addr:         ":0",
		Title:        "Test Overlay",
		PollInterval: 250 * time.Millisecond,
		Credentials:  creds,
		Renderer:     render.New(time.UTC),
	}, fc, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, srv, fc
}

func post(t *testing.T, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getOverlay(t *testing.T, ts *httptest.Server) OverlayJSON {
	t.Helper()
	resp, err := http.Get(ts.URL + "/overlay.json")
	if err != nil {
		t.Fatalf("GET /overlay.json: %v", err)
	}
	defer resp.Body.Close()

	var o OverlayJSON
	if err := json.NewDecoder(resp.Body).Decode(&o); err != nil {
		t.Fatalf("decode overlay: %v", err)
	}
	return o
}

func TestDisplay_OverlayJSON(t *testing.T) {
	ts, srv, _ := newTestServer(t, nil)

	srv.SetStatus(monitor.Status{Indicator: monitor.StateConnected, Text: "Connected"})
	srv.SetStatusPanelVisible(true)
	srv.ShowEvent(model.DisplayableEvent{
		Kind:      model.TypeQueueMessage,
		Body:      "<i>hello</i>",
		MessageID: "m-1",
	})

	o := getOverlay(t, ts)
	if o.Seq != 1 || !o.Visible {
		t.Errorf("seq = %d, visible = %v", o.Seq, o.Visible)
	}
	if !strings.Contains(o.HTML, "&lt;i&gt;hello&lt;/i&gt;") {
		t.Errorf("HTML = %q", o.HTML)
	}
	if o.Event == nil || o.Event.MessageID != "m-1" {
		t.Errorf("Event = %+v", o.Event)
	}
	if o.Status != (StatusJSON{Indicator: "connected", Text: "Connected"}) {
		t.Errorf("Status = %+v", o.Status)
	}
	if !o.StatusPanelVisible {
		t.Error("panel should be visible")
	}

	srv.HideEvent()
	o = getOverlay(t, ts)
	if o.Visible || o.Seq != 1 {
		t.Errorf("after hide: seq = %d, visible = %v", o.Seq, o.Visible)
	}
	if o.HTML == "" {
		t.Error("hidden event content should be kept")
	}
}

func TestIndexPage(t *testing.T) {
	ts, srv, _ := newTestServer(t, nil)
	srv.SetStatus(monitor.Status{Indicator: monitor.StateConnecting, Text: "Connecting..."})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{"<title>Test Overlay</title>", "Connecting...", "status-indicator connecting", "var pollMs = "} {
		if !strings.Contains(string(body), want) {
			t.Errorf("index missing %q", want)
		}
	}

	resp2, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", resp2.StatusCode)
	}
}

func TestControl_Endpoints(t *testing.T) {
	ts, _, fc := newTestServer(t, nil)

	tests := []struct {
		path string
		body string
		code int
		call string
	}{
		{"/control/hide", "", http.StatusNoContent, "hide"},
		{"/control/reconnect", "", http.StatusNoContent, "reconnect"},
		{"/control/duration", `{"ms":2500}`, http.StatusNoContent, "duration"},
		{"/control/duration", `{"ms":0}`, http.StatusBadRequest, ""},
		{"/control/duration", `nope`, http.StatusBadRequest, ""},
		{"/control/status-panel", `{"visible":true}`, http.StatusNoContent, "show"},
		{"/control/status-panel", `{"visible":false}`, http.StatusNoContent, "hide-panel"},
		{"/control/status-panel", `{"toggle":true}`, http.StatusNoContent, "toggle"},
		{"/control/status-panel", `{}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			fc.calls = nil
			resp := post(t, ts.URL+tt.path, tt.body, "")
			if resp.StatusCode != tt.code {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.code)
			}
			var got string
			if len(fc.calls) > 0 {
				got = fc.calls[0]
			}
			if got != tt.call {
				t.Errorf("call = %q, want %q", got, tt.call)
			}
		})
	}

	if fc.duration != 2500*time.Millisecond {
		t.Errorf("duration = %v, want 2.5s", fc.duration)
	}
}

func TestControl_MethodNotAllowed(t *testing.T) {
	ts, _, fc := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/control/hide")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
	if len(fc.calls) != 0 {
		t.Errorf("calls = %v", fc.calls)
	}
}

func TestControl_RequiresToken(t *testing.T) {
	creds := &auth.Credentials{Token: "s3cret"}
	ts, _, fc := newTestServer(t, creds)

	resp := post(t, ts.URL+"/control/reconnect", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}
	resp = post(t, ts.URL+"/control/reconnect", "", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp.StatusCode)
	}
	if len(fc.calls) != 0 {
		t.Fatalf("unauthorized calls reached the monitor: %v", fc.calls)
	}

	resp = post(t, ts.URL+"/control/reconnect", "", "s3cret")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("valid token: status = %d, want 204", resp.StatusCode)
	}

	// The display itself stays public.
	if o := getOverlay(t, ts); o.Seq != 0 {
		t.Errorf("seq = %d", o.Seq)
	}
}

func TestReadyState(t *testing.T) {
	ts, _, fc := newTestServer(t, nil)

	tests := []struct {
		name  string
		state connection.ReadyState
		ok    bool
		want  ReadyStateJSON
	}{
		{"open", connection.StateOpen, true, ReadyStateJSON{ReadyState: "OPEN", Exists: true}},
		{"connecting", connection.StateConnecting, true, ReadyStateJSON{ReadyState: "CONNECTING", Exists: true}},
		{"none", connection.StateClosed, false, ReadyStateJSON{ReadyState: "NONE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc.ready, fc.hasSock = tt.state, tt.ok

			resp, err := http.Get(ts.URL + "/control/ready-state")
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()

			var got ReadyStateJSON
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatusAndHealth(t *testing.T) {
	ts, _, fc := newTestServer(t, nil)
	fc.snap = monitor.Snapshot{
		State:      monitor.StateConnected,
		Status:     monitor.Status{Indicator: monitor.StateConnected, Text: "Connected (0m 5s)"},
		QueueDepth: 3,
	}

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	var snap map[string]any
	json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if snap["state"] != "connected" || snap["queueDepth"] != float64(3) {
		t.Errorf("snapshot = %v", snap)
	}

	tests := []struct {
		name   string
		state  monitor.ConnectionState
		err    error
		code   int
		status string
	}{
		{"connected", monitor.StateConnected, nil, http.StatusOK, "healthy"},
		{"reconnecting", monitor.StateConnecting, nil, http.StatusOK, "degraded"},
		{"loop stopped", monitor.StateConnected, clock.ErrLoopStopped, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc.snap.State, fc.err = tt.state, tt.err

			resp, err := http.Get(ts.URL + "/health")
			if err != nil {
				t.Fatalf("GET /health: %v", err)
			}
			defer resp.Body.Close()

			var h HealthJSON
			if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.StatusCode != tt.code || h.Status != tt.status {
				t.Errorf("got %d %q, want %d %q", resp.StatusCode, h.Status, tt.code, tt.status)
			}
			if h.Version.Version == "" {
				t.Error("version missing")
			}
		})
	}
}

func TestStatus_LoopStopped(t *testing.T) {
	ts, _, fc := newTestServer(t, nil)
	fc.err = clock.ErrLoopStopped

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	resp = post(t, ts.URL+"/control/hide", "", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("hide status = %d, want 503", resp.StatusCode)
	}
}
