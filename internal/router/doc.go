// Package router classifies inbound WebSocket messages and provides the
// growable FIFO used to hold events awaiting display or dispatch.
package router
