package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/web"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("http://localhost:8090/", "secret")

		if c.baseURL != "http://localhost:8090" {
			t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
		}
		if c.token != "secret" {
			t.Errorf("token = %q, want %q", c.token, "secret")
		}
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want 3", c.maxRetries)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("empty base url", func(t *testing.T) {
		c := NewClient("", "")
		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
		if !strings.HasPrefix(c.userAgent, "overlayctl/") {
			t.Errorf("userAgent = %q", c.userAgent)
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		hc := &http.Client{}
		c := NewClient("http://x", "",
			WithHTTPClient(hc),
			WithTimeout(2*time.Second),
			WithRetries(7, time.Millisecond),
			WithLogger(logger),
		)
		if c.httpClient != hc || hc.Timeout != 2*time.Second {
			t.Error("http client or timeout not applied")
		}
		if c.maxRetries != 7 || c.retryBackoff != time.Millisecond {
			t.Errorf("retries = %d/%v", c.maxRetries, c.retryBackoff)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})
}

func TestAPIError(t *testing.T) {
	t.Run("Error includes short body", func(t *testing.T) {
		err := &APIError{StatusCode: 503, Message: "Service Unavailable", Body: []byte("controls unavailable\n")}
		want := "overlay api error 503: controls unavailable"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("Error falls back to status text", func(t *testing.T) {
		err := &APIError{StatusCode: 404, Message: "Not Found"}
		want := "overlay api error 404: Not Found"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code int
			want bool
		}{
			{400, false},
			{401, false},
			{404, false},
			{429, true},
			{500, true},
			{503, true},
		}
		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable(%d) = %v, want %v", tt.code, got, tt.want)
			}
		}
	})
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", WithRetries(2, time.Millisecond))
}

func TestClient_Controls(t *testing.T) {
	type call struct {
		method, path, auth, body string
	}
	var got []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = append(got, call{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(b)})
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	if err := c.HideEvent(ctx); err != nil {
		t.Fatalf("HideEvent: %v", err)
	}
	if err := c.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if err := c.SetDisplayDuration(ctx, 1500*time.Millisecond); err != nil {
		t.Fatalf("SetDisplayDuration: %v", err)
	}
	if err := c.SetStatusPanel(ctx, false); err != nil {
		t.Fatalf("SetStatusPanel: %v", err)
	}
	if err := c.ToggleStatusPanel(ctx); err != nil {
		t.Fatalf("ToggleStatusPanel: %v", err)
	}

	want := []call{
		{"POST", "/control/hide", "Bearer tok", ""},
		{"POST", "/control/reconnect", "Bearer tok", ""},
		{"POST", "/control/duration", "Bearer tok", `{"ms":1500}`},
		{"POST", "/control/status-panel", "Bearer tok", `{"visible":false}`},
		{"POST", "/control/status-panel", "Bearer tok", `{"toggle":true}`},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClient_UserAgent(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	})
	c.userAgent = "stream-deck/2"
	if err := c.HideEvent(context.Background()); err != nil {
		t.Fatalf("HideEvent: %v", err)
	}
	if got != "stream-deck/2" {
		t.Errorf("User-Agent = %q, want stream-deck/2", got)
	}

	c2 := NewClient("http://x", "", WithUserAgent("panel/1"))
	if c2.userAgent != "panel/1" {
		t.Errorf("WithUserAgent not applied: %q", c2.userAgent)
	}
}

func TestClient_SetDisplayDuration_Invalid(t *testing.T) {
	c := NewClient("http://unused", "")
	if err := c.SetDisplayDuration(context.Background(), 0); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestClient_ReadyState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/control/ready-state" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(web.ReadyStateJSON{ReadyState: "OPEN", Exists: true})
	})

	rs, err := c.ReadyState(context.Background())
	if err != nil {
		t.Fatalf("ReadyState: %v", err)
	}
	if rs.ReadyState != "OPEN" || !rs.Exists {
		t.Errorf("ReadyState = %+v", rs)
	}
}

func TestClient_Status(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(monitor.Snapshot{
			State:      monitor.StateConnected,
			Status:     monitor.Status{Indicator: monitor.StateConnected, Text: "Connected (5s)"},
			ReadyState: "OPEN",
			QueueDepth: 2,
		})
	})

	s, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if s.State != monitor.StateConnected || s.Status.Text != "Connected (5s)" || s.QueueDepth != 2 {
		t.Errorf("Status = %+v", s)
	}
}

func TestClient_Health_Unhealthy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(web.HealthJSON{Status: "unhealthy"})
	})
	c.maxRetries = 0

	_, err := c.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Health error = %v, want 503 APIError", err)
	}
}

func TestClient_Retry(t *testing.T) {
	t.Run("retries 5xx then succeeds", func(t *testing.T) {
		var n atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if n.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		if err := c.Reconnect(context.Background()); err != nil {
			t.Fatalf("Reconnect: %v", err)
		}
		if n.Load() != 3 {
			t.Errorf("attempts = %d, want 3", n.Load())
		}
	})

	t.Run("does not retry 4xx", func(t *testing.T) {
		var n atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			n.Add(1)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
		err := c.HideEvent(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("err = %v, want 401", err)
		}
		if n.Load() != 1 {
			t.Errorf("attempts = %d, want 1", n.Load())
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var n atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			n.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		if err := c.HideEvent(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if n.Load() != 3 {
			t.Errorf("attempts = %d, want 3", n.Load())
		}
	})

	t.Run("context canceled during backoff", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		c.retryBackoff = time.Hour
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := c.HideEvent(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want deadline exceeded", err)
		}
	})
}
