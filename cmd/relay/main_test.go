package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rickgao/overlay-monitor/internal/hub"
	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/source"
)

func TestHealthHandler_NoClients(t *testing.T) {
	m := &metrics.Relay{}
	src := source.NewFake(m)
	defer src.Close()
	src.Push("overlay/events", []byte("hello"))
	src.Push("overlay/events", []byte("world"))

	h := hub.New(hub.DefaultConfig(), nil)
	defer h.Close()

	rec := httptest.NewRecorder()
	healthHandler(h, src, nil, m)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got relayHealth
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", got.Status)
	}
	if got.QueueDepth != 2 {
		t.Errorf("QueueDepth = %d, want 2", got.QueueDepth)
	}
	if got.Database != "" {
		t.Errorf("Database = %q, want empty without a pool", got.Database)
	}
}
