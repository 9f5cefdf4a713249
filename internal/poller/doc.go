// Package poller periodically checks the health of one or more overlay
// display servers.
//
// Each cycle queries every target concurrently, bounded by
// Config.Concurrency, and hands one Result per target to a ResultHandler.
// overlayctl's watch command uses it to follow several overlays at once.
package poller
