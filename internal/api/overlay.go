package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/web"
)

// HideEvent ends the event currently on screen.
func (c *Client) HideEvent(ctx context.Context) error {
	return c.post(ctx, "/control/hide", nil)
}

// Reconnect forces the overlay to reconnect to its relay.
func (c *Client) Reconnect(ctx context.Context) error {
	return c.post(ctx, "/control/reconnect", nil)
}

// SetDisplayDuration changes how long events stay on screen.
func (c *Client) SetDisplayDuration(ctx context.Context, d time.Duration) error {
	ms := d.Milliseconds()
	if ms <= 0 {
		return fmt.Errorf("display duration must be at least 1ms, got %v", d)
	}
	return c.post(ctx, "/control/duration", web.DurationRequest{Ms: ms})
}

// SetStatusPanel shows or hides the diagnostic panel.
func (c *Client) SetStatusPanel(ctx context.Context, visible bool) error {
	return c.post(ctx, "/control/status-panel", web.PanelRequest{Visible: &visible})
}

// ToggleStatusPanel flips the diagnostic panel.
func (c *Client) ToggleStatusPanel(ctx context.Context) error {
	return c.post(ctx, "/control/status-panel", web.PanelRequest{Toggle: true})
}

// ReadyState returns the overlay transport's ready state.
func (c *Client) ReadyState(ctx context.Context) (*ReadyStateResponse, error) {
	var resp ReadyStateResponse
	if err := c.get(ctx, "/control/ready-state", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the monitor snapshot.
func (c *Client) Status(ctx context.Context) (*monitor.Snapshot, error) {
	var resp monitor.Snapshot
	if err := c.get(ctx, "/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Overlay returns what the display is currently showing.
func (c *Client) Overlay(ctx context.Context) (*OverlayResponse, error) {
	var resp OverlayResponse
	if err := c.get(ctx, "/overlay.json", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the display server health. A 503 response is returned as
// an *APIError.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
