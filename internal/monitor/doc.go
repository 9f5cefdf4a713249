// Package monitor implements the overlay's connection-resilience and
// event-display engine.
//
// A Monitor keeps one socket to the relay open (reconnecting with capped
// exponential backoff), probes it with application-level pings, shows
// inbound events one at a time in arrival order and acknowledges each one
// when it leaves the screen. All Monitor methods must be called from a single
// goroutine, normally a clock.Loop; Controller wraps them for use from other
// goroutines.
package monitor
