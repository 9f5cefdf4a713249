// Package dispatch delivers relay messages to overlays one at a time.
//
// For each message the Dispatcher builds a display event, broadcasts it
// through the hub and waits for an overlay to acknowledge it (or for the
// acknowledgment timeout) before taking the next message. Every attempt is
// reported to a DeliveryHandler, which the relay uses for its delivery log.
package dispatch
