// Package hub is the relay side of the overlay socket.
//
// Hub upgrades overlay connections on /ws, greets each client, answers
// heartbeat pings, forwards display acknowledgments and broadcasts events to
// every connected overlay. Clients that fail a write are dropped, and clients
// that stop pinging are closed by the periodic cleanup in Run.
package hub
