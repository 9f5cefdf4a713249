package router

import (
	"errors"

	"github.com/rickgao/overlay-monitor/internal/model"
)

// ErrMalformed wraps messages that are not a JSON object.
var ErrMalformed = errors.New("malformed message")

// Kind classifies an inbound message.
type Kind int

const (
	KindUnknown      Kind = iota // Any type not handled below
	KindPong                     // Heartbeat response (overlay side)
	KindDisplayable              // queue_message / resource_ready (overlay side)
	KindPing                     // Heartbeat probe (relay side)
	KindAcknowledged             // Display finished (relay side)
)

// String returns a readable name for k.
func (k Kind) String() string {
	switch k {
	case KindPong:
		return "pong"
	case KindDisplayable:
		return "displayable"
	case KindPing:
		return "ping"
	case KindAcknowledged:
		return "acknowledged"
	default:
		return "unknown"
	}
}

// Inbound is a classified message. Event is only set for KindDisplayable.
type Inbound struct {
	Kind  Kind
	Type  model.MessageType
	Event model.DisplayableEvent
}

// Stats contains classification counters.
type Stats struct {
	MessagesReceived int64
	ParseErrors      int64
	UnknownMessages  int64
	Displayable      int64
	Pongs            int64
}
