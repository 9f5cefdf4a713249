package metrics

import "sync/atomic"

// Relay counts relay activity. Safe for concurrent use.
type Relay struct {
	ClientsConnected  atomic.Int64 // Gauge
	ClientsDropped    atomic.Int64
	MessagesSourced   atomic.Int64
	EventsBroadcast   atomic.Int64
	Acknowledged      atomic.Int64
	AckTimeouts       atomic.Int64
	PingsAnswered     atomic.Int64
	DeliveriesWritten atomic.Int64
	WriteErrors       atomic.Int64
}

// RelaySnapshot is a point-in-time copy of Relay.
type RelaySnapshot struct {
	ClientsConnected  int64 `json:"clients_connected"`
	ClientsDropped    int64 `json:"clients_dropped"`
	MessagesSourced   int64 `json:"messages_sourced"`
	EventsBroadcast   int64 `json:"events_broadcast"`
	Acknowledged      int64 `json:"acknowledged"`
	AckTimeouts       int64 `json:"ack_timeouts"`
	PingsAnswered     int64 `json:"pings_answered"`
	DeliveriesWritten int64 `json:"deliveries_written"`
	WriteErrors       int64 `json:"write_errors"`
}

// Snapshot returns current counter values.
func (r *Relay) Snapshot() RelaySnapshot {
	return RelaySnapshot{
		ClientsConnected:  r.ClientsConnected.Load(),
		ClientsDropped:    r.ClientsDropped.Load(),
		MessagesSourced:   r.MessagesSourced.Load(),
		EventsBroadcast:   r.EventsBroadcast.Load(),
		Acknowledged:      r.Acknowledged.Load(),
		AckTimeouts:       r.AckTimeouts.Load(),
		PingsAnswered:     r.PingsAnswered.Load(),
		DeliveriesWritten: r.DeliveriesWritten.Load(),
		WriteErrors:       r.WriteErrors.Load(),
	}
}
