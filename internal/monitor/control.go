package monitor

import (
	"context"
	"time"

	"github.com/rickgao/overlay-monitor/internal/connection"
)

// Caller runs f on the goroutine that owns a Monitor and waits for it.
type Caller interface {
	Call(ctx context.Context, f func()) error
}

// Controller exposes a Monitor's control surface to other goroutines.
// Errors only report that the owning loop has stopped or ctx expired.
type Controller struct {
	caller Caller
	m      *Monitor
}

// NewController creates a controller for m, which must be owned by caller.
func NewController(caller Caller, m *Monitor) *Controller {
	return &Controller{caller: caller, m: m}
}

// SetDisplayDuration changes how long subsequent events are shown.
func (c *Controller) SetDisplayDuration(ctx context.Context, d time.Duration) error {
	return c.caller.Call(ctx, func() { c.m.SetDisplayDuration(d) })
}

// ShowStatusPanel shows the diagnostic panel.
func (c *Controller) ShowStatusPanel(ctx context.Context) error {
	return c.caller.Call(ctx, c.m.ShowStatusPanel)
}

// HideStatusPanel hides the diagnostic panel.
func (c *Controller) HideStatusPanel(ctx context.Context) error {
	return c.caller.Call(ctx, c.m.HideStatusPanel)
}

// ToggleStatusPanel flips the diagnostic panel.
func (c *Controller) ToggleStatusPanel(ctx context.Context) error {
	return c.caller.Call(ctx, c.m.ToggleStatusPanel)
}

// ForceHideEvent ends the active event early.
func (c *Controller) ForceHideEvent(ctx context.Context) error {
	return c.caller.Call(ctx, c.m.ForceHideEvent)
}

// Reconnect forces an immediate reconnect.
func (c *Controller) Reconnect(ctx context.Context) error {
	return c.caller.Call(ctx, c.m.Reconnect)
}

// ReadyState returns the transport ready state; ok is false without a transport.
func (c *Controller) ReadyState(ctx context.Context) (connection.ReadyState, bool, error) {
	var (
		state connection.ReadyState
		ok    bool
	)
	if err := c.caller.Call(ctx, func() { state, ok = c.m.ReadyState() }); err != nil {
		return connection.StateClosed, false, err
	}
	return state, ok, nil
}

// Snapshot returns a copy of the monitor state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	if err := c.caller.Call(ctx, func() { s = c.m.Snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
