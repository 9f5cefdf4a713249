// Package metrics provides in-process counters for monitoring.
//
// Overlay counts monitor activity and is owned by the monitor's event loop.
// Relay counts relay activity with atomics and is shared by the hub, the
// dispatcher and the delivery writer.
package metrics
